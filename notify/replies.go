package notify

import "fmt"

var replyTexts = map[string]string{
	"1": "Tu turno ha sido confirmado. ¡Te esperamos!",
	"2": "Tu turno ha sido cancelado. Si cambias de opinión, no dudes en contactarnos.",
	"3": "Hemos recibido tu solicitud de reprogramación. Nos pondremos en contacto para coordinar una nueva fecha.",
}

// ReplyText is the acknowledgment sent back for a patient's WhatsApp answer.
func ReplyText(body string) string {
	if text, ok := replyTexts[body]; ok {
		return text
	}
	return fmt.Sprintf("Tu respuesta '%s' ha sido recibida.", body)
}
