package models

// CategoryOption pairs a stable category key with its display label.
type CategoryOption struct {
	Key   string
	Label string
}

// TaskCategories lists selectable task categories in keyboard order.
var TaskCategories = []CategoryOption{
	{"work", "💼 Work"},
	{"home", "🏠 Home"},
	{"personal", "👤 Personal"},
	{"finance", "💰 Finance"},
	{"health", "🏥 Health"},
	{"education", "📚 Education"},
	{"shopping", "🛒 Shopping"},
	{"other", "📋 Other"},
}

// ExpenseCategories lists selectable expense categories in keyboard order.
var ExpenseCategories = []CategoryOption{
	{"food", "🍔 Food"},
	{"transport", "🚗 Transport"},
	{"work", "💼 Work"},
	{"repair", "🔧 Repair"},
	{"entertainment", "🎬 Entertainment"},
	{"equipment", "🖥️ Equipment"},
	{"health", "🏥 Health"},
	{"education", "📚 Education"},
	{"utilities", "💡 Utilities"},
	{"clothing", "👕 Clothing"},
	{"other", "📋 Other"},
}

// IncomeCategories lists selectable income categories in keyboard order.
var IncomeCategories = []CategoryOption{
	{"salary", "💵 Salary"},
	{"freelance", "💻 Freelance"},
	{"investment", "📈 Investment"},
	{"gift", "🎁 Gift"},
	{"refund", "↩️ Refund"},
	{"bonus", "🎯 Bonus"},
	{"business", "🏢 Business"},
	{"other", "📋 Other"},
}

// PriorityOptions lists selectable task priorities in keyboard order.
var PriorityOptions = []CategoryOption{
	{string(PriorityHigh), "🔴 High"},
	{string(PriorityMedium), "🟡 Medium"},
	{string(PriorityLow), "🟢 Low"},
}

// CategoryLabel resolves a key against an option list, falling back to the
// "other" label when the key is unknown.
func CategoryLabel(options []CategoryOption, key string) string {
	for _, opt := range options {
		if opt.Key == key {
			return opt.Label
		}
	}
	return "📋 Other"
}

// ValidCategory reports whether key appears in the option list.
func ValidCategory(options []CategoryOption, key string) bool {
	for _, opt := range options {
		if opt.Key == key {
			return true
		}
	}
	return false
}
