package triggers

import (
	"github.com/ledgerd/automations/internal/fields"
	"github.com/ledgerd/automations/internal/types"
)

// transactionConditionFields is the shared condition field catalog for the
// transaction lifecycle triggers.
var transactionConditionFields = fields.NewRegistry().FieldsForEntity(fields.EntityTransaction)

// transactionEventSchema is the event payload contract shared by the
// transaction lifecycle triggers.
var transactionEventSchema = []types.EventField{
	{Field: "id", Label: "Transaction ID", Type: types.FieldTypeString, Required: true},
	{Field: "description", Label: "Description", Type: types.FieldTypeString, Required: true},
	{Field: "amount", Label: "Amount", Type: types.FieldTypeNumber, Required: true},
	{Field: "type", Label: "Type", Type: types.FieldTypeString, Required: true,
		Description: "income, expense or transfer"},
	{Field: "category", Label: "Category", Type: types.FieldTypeString},
	{Field: "accountId", Label: "Account", Type: types.FieldTypeString, Required: true},
	{Field: "merchant", Label: "Merchant", Type: types.FieldTypeString},
	{Field: "notes", Label: "Notes", Type: types.FieldTypeString},
	{Field: "date", Label: "Date", Type: types.FieldTypeDate, Required: true},
	{Field: "tags", Label: "Tags", Type: types.FieldTypeArray},
	{Field: "isRecurring", Label: "Recurring", Type: types.FieldTypeBoolean},
}

// builtinTriggers is the static trigger catalog. Custom registrations may
// shadow any entry at runtime; the slice itself is never mutated.
var builtinTriggers = []types.TriggerDefinition{
	{
		Type:               "transaction.created",
		Label:              "Transaction created",
		Description:        "Fires when a new transaction is recorded or imported",
		Category:           types.CategoryTransaction,
		AvailableFields:    transactionConditionFields,
		EventDataSchema:    transactionEventSchema,
		SupportsSimulation: true,
	},
	{
		Type:               "transaction.updated",
		Label:              "Transaction updated",
		Description:        "Fires when an existing transaction is modified",
		Category:           types.CategoryTransaction,
		AvailableFields:    transactionConditionFields,
		EventDataSchema:    transactionEventSchema,
		SupportsSimulation: true,
	},
	{
		Type:               "transaction.deleted",
		Label:              "Transaction deleted",
		Description:        "Fires when a transaction is removed",
		Category:           types.CategoryTransaction,
		AvailableFields:    transactionConditionFields,
		EventDataSchema:    transactionEventSchema,
		SupportsSimulation: true,
	},
	{
		Type:        "scheduled.daily",
		Label:       "Daily schedule",
		Description: "Fires once per day at the configured hour",
		Category:    types.CategoryScheduled,
		EventDataSchema: []types.EventField{
			{Field: "date", Label: "Run date", Type: types.FieldTypeDate, Required: true},
		},
		AvailableFields: []types.FieldDefinition{
			{
				Field: "date", Label: "Run date", Type: types.FieldTypeDate,
				Operators: fields.OperatorsForType(types.FieldTypeDate),
			},
		},
		SupportsSimulation: false,
		ConfigSchema: []types.ConfigField{
			{Field: "hour", Label: "Hour (UTC)", Type: types.FieldTypeNumber, Required: true,
				Description: "Hour of day the schedule fires, 0-23"},
		},
	},
	{
		Type:        "webhook.incoming",
		Label:       "Incoming webhook",
		Description: "Fires when a signed payload arrives on the rule's webhook endpoint",
		Category:    types.CategoryWebhook,
		EventDataSchema: []types.EventField{
			{Field: "event", Label: "Event name", Type: types.FieldTypeString, Required: true},
			{Field: "payload", Label: "Payload", Type: types.FieldTypeObject},
			{Field: "receivedAt", Label: "Received at", Type: types.FieldTypeDate, Required: true},
		},
		AvailableFields: []types.FieldDefinition{
			{
				Field: "event", Label: "Event name", Type: types.FieldTypeString,
				Operators: fields.OperatorsForType(types.FieldTypeString),
			},
			{
				Field: "payload", Label: "Payload", Type: types.FieldTypeObject,
				Operators: fields.OperatorsForType(types.FieldTypeObject),
			},
			{
				Field: "receivedAt", Label: "Received at", Type: types.FieldTypeDate,
				Operators: fields.OperatorsForType(types.FieldTypeDate),
			},
		},
		SupportsSimulation: true,
		ConfigSchema: []types.ConfigField{
			{Field: "secretId", Label: "Signing secret", Type: types.FieldTypeString, Required: true,
				Description: "ID of the HMAC secret used to verify payload signatures"},
		},
	},
}
