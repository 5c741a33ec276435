package wizard

import "github.com/blueprintforge/blueprint-backend/internal/blueprint/domain"

// Question is one dynamic intake question registered for a project type.
type Question struct {
	ID      domain.QuestionID `json:"id"`
	Prompt  string            `json:"question"`
	Options []string          `json:"options,omitempty"`
	Boolean bool              `json:"boolean,omitempty"`
}

// questionRegistry mirrors the platform intake catalog: each project type
// carries its own required questions.
var questionRegistry = map[domain.ProjectType][]Question{
	domain.TypeWeb: {
		{ID: "web_type", Prompt: "ما نوع الموقع؟", Options: []string{"متجر إلكتروني", "مدونة", "موقع تعريفي للشركة", "منصة SaaS"}},
		{ID: "has_backend", Prompt: "هل يحتاج الموقع إلى لوحة تحكم وإدارة بيانات؟", Boolean: true},
	},
	domain.TypeMobile: {
		{ID: "platform", Prompt: "ما هي المنصة المستهدفة؟", Options: []string{"Android", "iOS", "كلاهما (Cross-platform)"}},
		{ID: "has_auth", Prompt: "هل يحتاج التطبيق لنظام تسجيل دخول؟", Boolean: true},
	},
	domain.TypeAIBot: {
		{ID: "bot_platform", Prompt: "أين سيعمل البوت؟", Options: []string{"Telegram", "WhatsApp", "Web Chat", "Discord"}},
		{ID: "ai_model", Prompt: "الموديل المفضل (إذا وجد)", Options: []string{"GPT-4o", "Claude 3.5 Sonnet", "Gemini Pro"}},
	},
}

// QuestionsFor returns the registered questions for a project type.
func QuestionsFor(t domain.ProjectType) []Question {
	return questionRegistry[t]
}

// StackHints are the per-type boilerplate dependency suggestions attached to
// the intent analysis before generation.
var StackHints = map[domain.ProjectType][]string{
	domain.TypeWeb:    {"react", "framer-motion", "lucide-react", "tailwindcss"},
	domain.TypeMobile: {"expo", "react-native", "lucide-react-native"},
	domain.TypeAIBot:  {"python-telegram-bot", "openai", "langchain"},
}
