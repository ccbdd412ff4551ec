package llm

import (
	"fmt"

	"github.com/vetchat/chatbot-server-go/internal/model"
)

const systemPrompt = `You are a helpful veterinary assistant chatbot. Your role is to:

1. Answer ONLY veterinary-related questions about:
   - Pet care and wellness
   - Vaccination schedules
   - Diet and nutrition for pets
   - Common pet illnesses and symptoms
   - Preventive care for pets
   - General pet health advice

2. IMPORTANT: If a user asks a non-veterinary question, politely respond that you can only answer veterinary-related questions.

3. ALWAYS remind users that for serious health concerns, they should consult a licensed veterinarian in person.

4. Be conversational, friendly, and empathetic.

5. Keep responses concise (2-4 sentences) unless more detail is needed.

6. If a user wants to book an appointment, you will help collect their information.`

const (
	historyWindow = 10

	responseMaxTokens   = 500
	responseTemperature = 0.7
	intentMaxTokens     = 50
	extractionMaxTokens = 200
)

func intentPrompt(userMessage string) string {
	return fmt.Sprintf(`Analyze the following user message and determine if the user wants to book a veterinary appointment or just asking a general question.

User message: %q

Respond with ONLY ONE of these intents:
- "appointment_booking" if the user wants to schedule, book, or make an appointment
- "general_qa" if the user is asking a general veterinary question

Intent:`, userMessage)
}

func extractionPrompt(userMessage, currentJSON string) string {
	return fmt.Sprintf(`Extract appointment information from the user's message.

Current data we have: %s

User message: %q

Extract and return ONLY the following fields in JSON format (return null for missing fields):
{
  "ownerName": "string or null",
  "petName": "string or null",
  "phoneNumber": "string or null",
  "preferredDate": "YYYY-MM-DD format or null",
  "preferredTime": "HH:MM AM/PM format or null",
  "notes": "string or null"
}

JSON:`, currentJSON, userMessage)
}

var bookingPrompts = map[model.BookingField]string{
	model.FieldOwnerName:     "Great! I'd be happy to help you book an appointment. May I have your name, please?",
	model.FieldPetName:       "Thank you! What is your pet's name?",
	model.FieldPhoneNumber:   "Perfect! What's the best phone number to reach you?",
	model.FieldPreferredDate: "Wonderful! What date would you prefer for the appointment? (Please provide in YYYY-MM-DD format, e.g., 2026-01-15)",
	model.FieldPreferredTime: "Great! What time works best for you? (e.g., 2:00 PM or 14:00)",
}

// BookingPrompt returns the question for the first missing required field.
// ok is false once every required field is present.
func BookingPrompt(data *model.BookingData) (prompt string, ok bool) {
	missing := data.MissingFields()
	if len(missing) == 0 {
		return "", false
	}
	return bookingPrompts[missing[0]], true
}
