package fields

import "github.com/ledgerd/automations/internal/types"

// transactionFields is the static catalog for the transaction entity.
// Operator sets mirror the legality table in registry.go; a field may
// declare fewer operators than its type allows, never more.
var transactionFields = []types.FieldDefinition{
	{
		Field:       "description",
		Label:       "Description",
		Type:        types.FieldTypeString,
		Description: "Free-text transaction description as imported or entered",
		Operators: []types.Operator{
			types.OpEq, types.OpNeq, types.OpContains, types.OpNotContains,
			types.OpStartsWith, types.OpEndsWith, types.OpMatches,
			types.OpIsEmpty, types.OpIsNotEmpty,
		},
		Placeholder: "e.g. Netflix subscription",
	},
	{
		Field:       "amount",
		Label:       "Amount",
		Type:        types.FieldTypeNumber,
		Description: "Transaction amount in the account currency",
		Operators: []types.Operator{
			types.OpEq, types.OpNeq, types.OpGt, types.OpGte, types.OpLt,
			types.OpLte, types.OpBetween, types.OpNotBetween,
		},
		Placeholder: "0.00",
	},
	{
		Field:       "type",
		Label:       "Type",
		Type:        types.FieldTypeString,
		Description: "Transaction direction",
		Operators:   []types.Operator{types.OpEq, types.OpNeq},
		ValueOptions: []types.ValueOption{
			{Value: "income", Label: "Income"},
			{Value: "expense", Label: "Expense"},
			{Value: "transfer", Label: "Transfer"},
		},
	},
	{
		Field:       "category",
		Label:       "Category",
		Type:        types.FieldTypeString,
		Description: "Assigned budget category",
		Operators: []types.Operator{
			types.OpEq, types.OpNeq, types.OpContains, types.OpNotContains,
			types.OpIsEmpty, types.OpIsNotEmpty,
		},
		HelpText: "Empty until a category is assigned manually or by a rule",
	},
	{
		Field:       "accountId",
		Label:       "Account",
		Type:        types.FieldTypeString,
		Description: "Bank account the transaction belongs to",
		Operators:   []types.Operator{types.OpEq, types.OpNeq},
	},
	{
		Field:       "merchant",
		Label:       "Merchant",
		Type:        types.FieldTypeString,
		Description: "Merchant name when the import source provides one",
		// Merchant names arrive with inconsistent casing from bank feeds,
		// so comparisons fold case for this field.
		CaseInsensitive: true,
		Operators: []types.Operator{
			types.OpEq, types.OpNeq, types.OpContains, types.OpNotContains,
			types.OpStartsWith, types.OpEndsWith,
			types.OpIsEmpty, types.OpIsNotEmpty,
		},
	},
	{
		Field:       "notes",
		Label:       "Notes",
		Type:        types.FieldTypeString,
		Description: "User-entered notes",
		Operators: []types.Operator{
			types.OpContains, types.OpNotContains,
			types.OpIsEmpty, types.OpIsNotEmpty,
		},
	},
	{
		Field:       "date",
		Label:       "Date",
		Type:        types.FieldTypeDate,
		Description: "Transaction date",
		Operators: []types.Operator{
			types.OpEq, types.OpNeq, types.OpBefore, types.OpAfter,
			types.OpBetween, types.OpNotBetween, types.OpIsWeekend,
			types.OpIsWeekday, types.OpDayOfWeek, types.OpDayOfMonth,
		},
		HelpText: "Weekend/weekday checks use the calendar day in UTC",
	},
	{
		Field:       "tags",
		Label:       "Tags",
		Type:        types.FieldTypeArray,
		Description: "User-assigned tags",
		Operators: []types.Operator{
			types.OpContains, types.OpNotContains, types.OpContainsAny,
			types.OpContainsAll, types.OpIsEmpty, types.OpIsNotEmpty,
		},
	},
	{
		Field:       "isRecurring",
		Label:       "Recurring",
		Type:        types.FieldTypeBoolean,
		Description: "Whether the transaction was detected as recurring",
		Operators:   []types.Operator{types.OpEq, types.OpNeq},
	},
}
