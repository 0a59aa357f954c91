package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ariebrainware/dentplanner-api/config"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

const (
	ReminderTemplateName = "recordatorio_turno"
	ReminderLanguage     = "es_AR"
	DefaultGraphURL      = "https://graph.facebook.com"
)

var ErrWhatsAppDisabled = errors.New("whatsapp delivery is not configured")

// TemplateReminder holds the body parameters of the reminder template, in
// template order after To.
type TemplateReminder struct {
	To          string
	PatientName string
	ClinicName  string
	Date        string // DD-MM-YYYY
	Time        string // HH:mm
	DentistName string
}

// SendResult identifies a delivered message. WaID is the WhatsApp id of the
// recipient, used later to match inbound replies.
type SendResult struct {
	WaID      string
	MessageID string
	Raw       []byte
}

// WhatsAppSender sends reminder templates and free-text replies.
type WhatsAppSender interface {
	SendReminder(ctx context.Context, msg TemplateReminder) (SendResult, error)
	Reply(ctx context.Context, to, body, replyTo string) error
}

// NewWhatsAppSender builds the provider selected by WHATSAPP_PROVIDER.
func NewWhatsAppSender(cfg *config.Config) WhatsAppSender {
	if cfg == nil {
		return DisabledSender{}
	}
	switch cfg.WhatsAppProvider {
	case "twilio":
		if cfg.TwilioAccountSID == "" || cfg.TwilioFrom == "" {
			return DisabledSender{}
		}
		return NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, cfg.ClinicName)
	default:
		if cfg.WhatsAppToken == "" || cfg.WhatsAppPhoneNumberID == "" {
			return DisabledSender{}
		}
		return NewCloudClient(cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID, WithAPIVersion(cfg.WhatsAppAPIVersion))
	}
}

// DisabledSender fails every delivery with ErrWhatsAppDisabled.
type DisabledSender struct{}

func (DisabledSender) SendReminder(context.Context, TemplateReminder) (SendResult, error) {
	return SendResult{}, ErrWhatsAppDisabled
}

func (DisabledSender) Reply(context.Context, string, string, string) error {
	return ErrWhatsAppDisabled
}

// CloudOption configures a CloudClient.
type CloudOption func(*CloudClient)

func WithHTTPClient(c *http.Client) CloudOption {
	return func(cc *CloudClient) { cc.httpClient = c }
}

// WithBaseURL points the client at another Graph API host, e.g. a test server.
func WithBaseURL(u string) CloudOption {
	return func(cc *CloudClient) { cc.baseURL = strings.TrimRight(u, "/") }
}

func WithAPIVersion(v string) CloudOption {
	return func(cc *CloudClient) {
		if v != "" {
			cc.version = v
		}
	}
}

// CloudClient talks to the WhatsApp Business Cloud API.
type CloudClient struct {
	token         string
	phoneNumberID string
	baseURL       string
	version       string
	httpClient    *http.Client
}

func NewCloudClient(token, phoneNumberID string, opts ...CloudOption) *CloudClient {
	c := &CloudClient{
		token:         token,
		phoneNumberID: phoneNumberID,
		baseURL:       DefaultGraphURL,
		version:       "v19.0",
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *CloudClient) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.version, c.phoneNumberID)
}

type textParam struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type cloudMessage struct {
	MessagingProduct string         `json:"messaging_product"`
	To               string         `json:"to"`
	Type             string         `json:"type,omitempty"`
	Template         *cloudTemplate `json:"template,omitempty"`
	Text             *cloudText     `json:"text,omitempty"`
	Context          *cloudContext  `json:"context,omitempty"`
}

type cloudTemplate struct {
	Name     string `json:"name"`
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
	Components []cloudComponent `json:"components"`
}

type cloudComponent struct {
	Type       string      `json:"type"`
	Parameters []textParam `json:"parameters"`
}

type cloudText struct {
	Body string `json:"body"`
}

type cloudContext struct {
	MessageID string `json:"message_id"`
}

type cloudResponse struct {
	Contacts []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *CloudClient) post(ctx context.Context, payload cloudMessage) (cloudResponse, []byte, error) {
	var out cloudResponse

	body, err := json.Marshal(payload)
	if err != nil {
		return out, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(), bytes.NewReader(body))
	if err != nil {
		return out, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, nil, fmt.Errorf("whatsapp request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(raw, &out); err != nil && resp.StatusCode < 300 {
		return out, raw, fmt.Errorf("decode whatsapp response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out.Error != nil {
			return out, raw, fmt.Errorf("whatsapp api %d: %s (code %d)", resp.StatusCode, out.Error.Message, out.Error.Code)
		}
		return out, raw, fmt.Errorf("whatsapp api: non-2xx response: %d", resp.StatusCode)
	}
	return out, raw, nil
}

// SendReminder sends the approved reminder template.
func (c *CloudClient) SendReminder(ctx context.Context, msg TemplateReminder) (SendResult, error) {
	tpl := &cloudTemplate{Name: ReminderTemplateName}
	tpl.Language.Code = ReminderLanguage
	tpl.Components = []cloudComponent{{
		Type: "body",
		Parameters: []textParam{
			{Type: "text", Text: msg.PatientName},
			{Type: "text", Text: msg.ClinicName},
			{Type: "text", Text: msg.Date},
			{Type: "text", Text: msg.Time},
			{Type: "text", Text: msg.DentistName},
		},
	}}

	out, raw, err := c.post(ctx, cloudMessage{
		MessagingProduct: "whatsapp",
		To:               msg.To,
		Type:             "template",
		Template:         tpl,
	})
	res := SendResult{Raw: raw}
	if err != nil {
		return res, err
	}
	if len(out.Contacts) == 0 {
		return res, errors.New("whatsapp response has no contacts")
	}
	res.WaID = out.Contacts[0].WaID
	if len(out.Messages) > 0 {
		res.MessageID = out.Messages[0].ID
	}
	return res, nil
}

// Reply sends a free-text message threaded under replyTo when it is set.
func (c *CloudClient) Reply(ctx context.Context, to, body, replyTo string) error {
	msg := cloudMessage{
		MessagingProduct: "whatsapp",
		To:               to,
		Text:             &cloudText{Body: body},
	}
	if replyTo != "" {
		msg.Context = &cloudContext{MessageID: replyTo}
	}
	_, _, err := c.post(ctx, msg)
	return err
}

// TwilioSender delivers WhatsApp messages through Twilio. Twilio has no
// template parameters here, so the reminder is rendered as plain text.
type TwilioSender struct {
	client     *twilio.RestClient
	from       string
	clinicName string
}

func NewTwilioSender(accountSID, authToken, from, clinicName string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from:       from,
		clinicName: clinicName,
	}
}

func twilioAddress(phone string) string {
	if strings.HasPrefix(phone, "whatsapp:") {
		return phone
	}
	return "whatsapp:" + phone
}

// ReminderText renders the reminder template as a single message.
func ReminderText(msg TemplateReminder) string {
	return fmt.Sprintf("Hola %s, te recordamos tu turno en %s el %s a las %s con el Dr. %s. "+
		"Responde 1 para confirmar, 2 para cancelar o 3 para reprogramar.",
		msg.PatientName, msg.ClinicName, msg.Date, msg.Time, msg.DentistName)
}

func (t *TwilioSender) send(to, body string) (*twilioApi.ApiV2010Message, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(twilioAddress(to))
	params.SetFrom(twilioAddress(t.from))
	params.SetBody(body)
	return t.client.Api.CreateMessage(params)
}

func (t *TwilioSender) SendReminder(_ context.Context, msg TemplateReminder) (SendResult, error) {
	if msg.ClinicName == "" {
		msg.ClinicName = t.clinicName
	}
	resp, err := t.send(msg.To, ReminderText(msg))
	if err != nil {
		return SendResult{}, fmt.Errorf("twilio send: %w", err)
	}

	res := SendResult{WaID: strings.TrimPrefix(strings.TrimPrefix(msg.To, "whatsapp:"), "+")}
	if resp != nil && resp.Sid != nil {
		res.MessageID = *resp.Sid
	}
	if raw, err := json.Marshal(resp); err == nil {
		res.Raw = raw
	}
	return res, nil
}

func (t *TwilioSender) Reply(_ context.Context, to, body, _ string) error {
	if _, err := t.send(to, body); err != nil {
		return fmt.Errorf("twilio reply: %w", err)
	}
	return nil
}
