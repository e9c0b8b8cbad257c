package core

// Category keys stored on records. Aggregation keeps unknown keys as their
// own bucket; only display falls back to "other".
const (
	CategoryOther       = "other"
	CategoryOtherIncome = "other-income"
)

// CategoryInfo is the display form of a category key.
type CategoryInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

func (c CategoryInfo) String() string { return c.Icon + " " + c.Label }

var transactionCategories = map[string]CategoryInfo{
	"food":              {"food", "Food", "🍔"},
	"transport":         {"transport", "Transport", "🚗"},
	"shopping":          {"shopping", "Shopping", "🛍️"},
	"bills":             {"bills", "Bills", "📄"},
	"entertainment":     {"entertainment", "Entertainment", "🎬"},
	"health":            {"health", "Health", "🏥"},
	CategoryOther:       {CategoryOther, "Other", "📦"},
	"salary":            {"salary", "Salary", "💼"},
	"freelance":         {"freelance", "Freelance", "💻"},
	"investment":        {"investment", "Investment", "📈"},
	"gift":              {"gift", "Gift", "🎁"},
	CategoryOtherIncome: {CategoryOtherIncome, "Other", "💵"},
}

var goalCategories = map[string]CategoryInfo{
	"savings":     {"savings", "Savings", "💰"},
	"investment":  {"investment", "Investment", "📈"},
	"purchase":    {"purchase", "Purchase", "🛍️"},
	"debt":        {"debt", "Debt", "💳"},
	"emergency":   {"emergency", "Emergency", "🚨"},
	CategoryOther: {CategoryOther, "Other", "📦"},
}

// LookupCategory returns display info for a transaction category.
func LookupCategory(key string) CategoryInfo {
	if c, ok := transactionCategories[key]; ok {
		return c
	}
	return CategoryInfo{Key: key, Label: "Other", Icon: "📦"}
}

// LookupGoalCategory returns display info for a goal category.
func LookupGoalCategory(key string) CategoryInfo {
	if c, ok := goalCategories[key]; ok {
		return c
	}
	return CategoryInfo{Key: key, Label: "Other", Icon: "📦"}
}
