package mockapi

import (
	"strings"

	"github.com/goatkit/querypro/internal/models"
)

type categoryRule struct {
	category string
	priority models.Priority
	keywords []string
}

var categoryRules = []categoryRule{
	{"Safety", models.PriorityUrgent, []string{"fire", "injury", "harass", "unsafe", "emergency"}},
	{"Infrastructure", models.PriorityHigh, []string{"wifi", "internet", "water", "electric", "power", "leak"}},
	{"Academics", models.PriorityMedium, []string{"exam", "grade", "lecture", "course", "marks"}},
	{"Food Services", models.PriorityMedium, []string{"food", "cafeteria", "mess", "canteen", "lunch"}},
	{"Administration", models.PriorityLow, []string{"fee", "id card", "library", "certificate", "document"}},
}

// classify is a keyword stand-in for the ML classification service.
func classify(text string) models.Classification {
	lower := strings.ToLower(text)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return models.Classification{
					PredictedCategory:    rule.category,
					PredictedPriority:    rule.priority,
					ClassificationMethod: "keyword",
				}
			}
		}
	}
	return models.Classification{
		PredictedCategory:    "General",
		PredictedPriority:    models.PriorityLow,
		ClassificationMethod: "default",
	}
}
