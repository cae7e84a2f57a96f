package member

import "github.com/kurlclub/kurlclub-forms/pkg/schema"

// Static option sets. Unlike the plan and trainer sets, these never depend on
// the gym and are always available to the validator.

var GenderOptions = []schema.Option{
	{Label: "Male", Value: "male"},
	{Label: "Female", Value: "female"},
	{Label: "Other", Value: "other"},
}

var BloodGroupOptions = []schema.Option{
	{Label: "A+", Value: "A+"},
	{Label: "A-", Value: "A-"},
	{Label: "B+", Value: "B+"},
	{Label: "B-", Value: "B-"},
	{Label: "O+", Value: "O+"},
	{Label: "O-", Value: "O-"},
	{Label: "AB+", Value: "AB+"},
	{Label: "AB-", Value: "AB-"},
}

var PaymentMethodOptions = []schema.Option{
	{Label: "Cash", Value: "cash"},
	{Label: "UPI", Value: "upi"},
}

var IDTypeOptions = []schema.Option{
	{Label: "Aadhaar Card", Value: "aadhaar"},
	{Label: "Driving License", Value: "driving_license"},
	{Label: "Passport", Value: "passport"},
	{Label: "Emirates ID", Value: "emirates_id"},
	{Label: "Other Government ID", Value: "other"},
}

var PurposeOptions = []schema.Option{
	{Label: "Weight Loss", Value: "weight_loss"},
	{Label: "Muscle Gain", Value: "muscle_gain"},
	{Label: "General Fitness", Value: "general_fitness"},
	{Label: "Endurance", Value: "endurance"},
	{Label: "Rehabilitation", Value: "rehabilitation"},
	{Label: "Other", Value: "other"},
}

var RelationOptions = []schema.Option{
	{Label: "Parent", Value: "parent"},
	{Label: "Spouse", Value: "spouse"},
	{Label: "Sibling", Value: "sibling"},
	{Label: "Friend", Value: "friend"},
	{Label: "Guardian", Value: "guardian"},
	{Label: "Other", Value: "other"},
}
