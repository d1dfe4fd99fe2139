package resolution

import "github.com/xaenox/return-analyzer/internal/models"

// Default is returned for any label without a registered action.
var Default = models.Resolution{Action: "ℹ️ Requires manual review", Color: "#999999"}

var actions = map[string]models.Resolution{
	"Size Issue":        {Action: "🔄 Offer size exchange with free return shipping", Color: "#FFA500"},
	"Defective":         {Action: "🔧 Process replacement with expedited shipping", Color: "#FF3333"},
	"Color Issue":       {Action: "💰 Offer 25% discount to keep the item", Color: "#AA66CC"},
	"Delivery Issue":    {Action: "🚚 Refund shipping costs + 10% discount", Color: "#33B5E5"},
	"Wrong Item":        {Action: "📦 Send correct item + 15% discount", Color: "#FFBB33"},
	"Performance Issue": {Action: "🛠 Technical support consultation", Color: "#00C851"},
}

// Resolve maps a predicted category to its recommended action and color.
// Matching is exact; unknown labels get Default.
func Resolve(label string) models.Resolution {
	if r, ok := actions[label]; ok {
		return r
	}
	return Default
}

// Labels returns the registered categories in no particular order
func Labels() []string {
	out := make([]string, 0, len(actions))
	for label := range actions {
		out = append(out, label)
	}
	return out
}
