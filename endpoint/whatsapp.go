package endpoint

import (
	"errors"
	"net/http"

	"github.com/ariebrainware/dentplanner-api/middleware"
	"github.com/ariebrainware/dentplanner-api/reminder"
	"github.com/ariebrainware/dentplanner-api/scheduling"
	"github.com/ariebrainware/dentplanner-api/util"
	"github.com/gin-gonic/gin"
)

const whatsappObject = "whatsapp_business_account"

type SendWhatsAppRequest struct {
	AppointmentID uint `json:"appointment_id" binding:"required" example:"1"`
}

type SendWhatsAppResponse struct {
	AppointmentID uint   `json:"appointment_id" example:"1"`
	WaID          string `json:"wa_id" example:"5491155551111"`
	MessageID     string `json:"message_id"`
}

// webhookPayload is the subset of a Cloud API notification the handler reads.
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Messages []webhookMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

// SendWhatsAppReminder godoc
// @Summary      Send the WhatsApp reminder of an appointment
// @Tags         WhatsApp
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SendWhatsAppRequest true "Appointment"
// @Success      200 {object} util.APIResponse{data=SendWhatsAppResponse} "Message sent"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      500 {object} util.APIResponse "Failed to send message"
// @Router       /whatsapp/send [post]
func SendWhatsAppReminder(c *gin.Context) {
	var req SendWhatsAppRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}
	services, ok := getServicesOrRespond(c)
	if !ok {
		return
	}
	if services.Reminders == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to send message", Err: errors.New("reminder service not configured")})
		return
	}

	res, err := services.Reminders.SendWhatsApp(c.Request.Context(), req.AppointmentID)
	if err != nil {
		if errors.Is(err, reminder.ErrAppointmentNotFound) {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Appointment not found", Err: err})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to send message", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Message sent", Data: SendWhatsAppResponse{
		AppointmentID: req.AppointmentID,
		WaID:          res.WaID,
		MessageID:     res.MessageID,
	}})
}

// VerifyWhatsAppWebhook godoc
// @Summary      Webhook verification handshake
// @Tags         WhatsApp
// @Produce      plain
// @Param        hub.mode         query string true "subscribe"
// @Param        hub.verify_token query string true "Verify token"
// @Param        hub.challenge    query string true "Challenge echoed back"
// @Success      200 {string} string "challenge"
// @Failure      403 {string} string "Forbidden"
// @Router       /whatsapp/webhook [get]
func VerifyWhatsAppWebhook(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	var expected string
	if s := middleware.GetServices(c); s != nil && s.Config != nil {
		expected = s.Config.WhatsAppVerifyToken
	}
	if mode == "subscribe" && expected != "" && token == expected {
		util.Logger().Info().Msg("whatsapp webhook verified")
		c.String(http.StatusOK, challenge)
		return
	}

	util.LogSecurityEvent(util.SecurityEvent{
		EventType: util.EventWebhookRejected,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		RequestID: middleware.GetRequestID(c),
		Message:   "WhatsApp webhook verification rejected",
		Details:   map[string]interface{}{"mode": mode},
	})
	c.Status(http.StatusForbidden)
}

// ReceiveWhatsAppWebhook godoc
// @Summary      Inbound WhatsApp messages
// @Description  Replies 1, 2 and 3 confirm, cancel or ask to reschedule the patient's latest reminded appointment.
// @Tags         WhatsApp
// @Accept       json
// @Success      200
// @Failure      404
// @Router       /whatsapp/webhook [post]
func ReceiveWhatsAppWebhook(c *gin.Context) {
	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}
	if payload.Object != whatsappObject {
		c.Status(http.StatusNotFound)
		return
	}
	services := middleware.GetServices(c)
	if services == nil || services.Reminders == nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	ctx := c.Request.Context()
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" {
					continue
				}
				out, err := services.Reminders.HandleWhatsAppReply(ctx, msg.From, msg.Text.Body, msg.ID)
				switch {
				case err == nil:
				case errors.Is(err, scheduling.ErrSlotTaken), errors.Is(err, scheduling.ErrSlotUnavailable), errors.Is(err, scheduling.ErrLockBusy):
					util.Logger().Warn().Err(err).Uint("appointment_id", out.AppointmentID).Msg("whatsapp confirmation rejected")
				default:
					util.Logger().Error().Err(err).Str("message_id", msg.ID).Msg("whatsapp reply failed")
					c.Status(http.StatusInternalServerError)
					return
				}
			}
		}
	}
	c.Status(http.StatusOK)
}
