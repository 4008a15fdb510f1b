package advisor

// Tone selects the register of a generated reminder message.
type Tone string

const (
	ToneFriendly Tone = "friendly"
	ToneFormal   Tone = "formal"
	ToneUrgent   Tone = "urgent"
)

// Language selects the reminder language.
type Language string

const (
	LangEnglish Language = "en"
	LangHindi   Language = "hi"
	LangMarathi Language = "mr"
)

// fallbackReminderTemplate is used when no template exists for a
// tone/language combination.
const fallbackReminderTemplate = "{customerName},\nThis is a reminder that invoice {invoiceNumber} for {amount} is due."

// cannedTemplates is the static template dictionary, keyed by message kind,
// then language, then tone.
var cannedTemplates = map[string]map[Language]map[Tone]string{
	"payment_reminder": {
		LangEnglish: {
			ToneFriendly: "Hi {customerName}! Just a gentle reminder that your invoice #{invoiceNumber} for ₹{amount} is due. Please let us know if you need any assistance. Thank you!",
			ToneFormal:   "Dear {customerName}, This is a reminder that invoice #{invoiceNumber} for ₹{amount} is due for payment. Please process the payment at your earliest convenience.",
			ToneUrgent:   "URGENT: Invoice #{invoiceNumber} for ₹{amount} is overdue. Please settle this immediately to avoid service disruption.",
		},
		LangHindi: {
			ToneFriendly: "नमस्ते {customerName}! आपका चालान #{invoiceNumber} ₹{amount} का बकाया है। कृपया भुगतान करें। धन्यवाद!",
			ToneFormal:   "प्रिय {customerName}, यह अनुस्मारक है कि चालान #{invoiceNumber} ₹{amount} का भुगतान देय है।",
			ToneUrgent:   "तत्काल: चालान #{invoiceNumber} ₹{amount} का भुगतान लंबित है। कृपया तुरंत भुगतान करें।",
		},
		LangMarathi: {
			ToneFriendly: "नमस्कार {customerName}! तुमचा बिल #{invoiceNumber} ₹{amount} चा थकीत आहे. कृपया पेमेंट करा. धन्यवाद!",
			ToneFormal:   "प्रिय {customerName}, हे स्मरणपत्र आहे की बिल #{invoiceNumber} ₹{amount} चे पेमेंट थकीत आहे.",
			ToneUrgent:   "तातडीने: बिल #{invoiceNumber} ₹{amount} चे पेमेंट थकीत आहे. कृपया तातडीने पेमेंट करा.",
		},
	},
}

// lookupTemplate resolves a template through the nested dictionary, falling
// back to the generic template when the kind, language or tone is missing.
func lookupTemplate(kind string, lang Language, tone Tone) string {
	if byLang, ok := cannedTemplates[kind]; ok {
		if byTone, ok := byLang[lang]; ok {
			if tmpl, ok := byTone[tone]; ok {
				return tmpl
			}
		}
	}
	return fallbackReminderTemplate
}
