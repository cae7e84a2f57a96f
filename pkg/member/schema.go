// Package member declares the gym membership registration entity: its field
// descriptors, wire mapping, static option sets, and the intake profiles that
// vary which fields a gym collects up front.
package member

import (
	"fmt"
	"time"

	"github.com/kurlclub/kurlclub-forms/pkg/refdata"
	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
)

// Profile selects which variant of the registration form a gym runs. The
// choice is an explicit configuration input; nothing infers it.
type Profile string

const (
	// ProfileFull is the complete intake the production form uses: personal,
	// health, identity, emergency-contact, plan, and fee fields.
	ProfileFull Profile = "full-intake"
	// ProfileQuick collects the personal essentials; plan and fee fields are
	// settled later at the front desk.
	ProfileQuick Profile = "quick-intake"
	// ProfileMinimal is a name-and-phone capture form.
	ProfileMinimal Profile = "minimal"
)

// Profiles lists the known intake profiles.
func Profiles() []Profile {
	return []Profile{ProfileFull, ProfileQuick, ProfileMinimal}
}

const (
	maxAddressLength  = 250
	maxUploadBytes    = 5 << 20
	emailPattern      = `^[^\s@]+@[^\s@]+\.[^\s@]+$`
	photoMIMEWildcard = "image/*"
)

// baseFields declares every field of the entity in form order. Profile
// overlays only ever remove fields or flip Required; they never add.
func baseFields(now time.Time) []schema.FieldDescriptor {
	return []schema.FieldDescriptor{
		{
			Key: "profilePicture", Kind: schema.KindComputed, Label: "Profile picture",
			WireName: "Photo",
			Constraints: schema.Constraints{
				AllowedMIMETypes: []string{photoMIMEWildcard},
				MaxBytes:         maxUploadBytes,
			},
		},
		{Key: "name", Kind: schema.KindText, Label: "Name", WireName: "Name", Required: true},
		{
			Key: "email", Kind: schema.KindText, Label: "Email", WireName: "Email", Required: true,
			Constraints:    schema.Constraints{Pattern: emailPattern},
			PatternMessage: "Invalid email format",
		},
		{Key: "phone", Kind: schema.KindPhone, Label: "Phone", WireName: "Phone", Required: true},
		{
			Key: "gender", Kind: schema.KindSelect, Label: "Gender", WireName: "Gender", Required: true,
			RequiredMessage: "Gender selection is required",
			Constraints:     schema.Constraints{Options: GenderOptions},
		},
		{Key: "height", Kind: schema.KindText, Label: "Height", WireName: "Height", Required: true},
		{Key: "weight", Kind: schema.KindText, Label: "Weight", WireName: "Weight", Required: true},
		{Key: "dob", Kind: schema.KindDate, Label: "Date of Birth", WireName: "Dob", Required: true},
		{
			Key: "doj", Kind: schema.KindDate, Label: "Date of Joining", WireName: "Doj", Required: true,
			Default: value.String(now.UTC().Format(time.RFC3339)),
		},
		{
			Key: "bloodGroup", Kind: schema.KindSelect, Label: "Blood Group", WireName: "BloodGroup", Required: true,
			RequiredMessage: "Blood group selection is required",
			Constraints:     schema.Constraints{Options: BloodGroupOptions},
		},
		{
			Key: "address", Kind: schema.KindTextarea, Label: "Address", WireName: "Address", Required: true,
			Constraints: schema.Constraints{MaxLength: maxAddressLength},
		},
		{
			Key: "purpose", Kind: schema.KindSelect, Label: "Fitness Goal", WireName: "FitnessGoal",
			Constraints: schema.Constraints{Options: PurposeOptions},
		},
		{Key: "medicalHistory", Kind: schema.KindTextarea, Label: "Medical History", WireName: "MedicalHistory"},
		{
			Key: "idType", Kind: schema.KindSelect, Label: "ID Type", WireName: "IdType", Required: true,
			Constraints: schema.Constraints{Options: IDTypeOptions},
		},
		{
			Key: "id", Kind: schema.KindText, Label: "ID Number", WireName: "IdNumber", Required: true,
			RequiredMessage: "Id number is required",
		},
		{
			Key: "idDocument", Kind: schema.KindFile, Label: "ID Copy", WireName: "IdCopy", Required: true,
			Constraints: schema.Constraints{
				AllowedMIMETypes: []string{"application/pdf"},
				MaxBytes:         maxUploadBytes,
			},
		},
		{Key: "emergencyContactName", Kind: schema.KindText, Label: "Emergency Contact Name", WireName: "EmergencyContactName"},
		{Key: "emergencyContactPhone", Kind: schema.KindPhone, Label: "Emergency Contact Phone", WireName: "EmergencyContactPhone"},
		{
			Key: "emergencyContactRelation", Kind: schema.KindSelect, Label: "Relation", WireName: "EmergencyContactRelation",
			Constraints: schema.Constraints{Options: RelationOptions},
		},
		{
			Key: "membershipPlanId", Kind: schema.KindSelect, Label: "Package", WireName: "MembershipPlanId", Required: true,
			RequiredMessage: "Package selection is required",
			Constraints:     schema.Constraints{OptionSource: refdata.SetMembershipPlans},
		},
		{
			Key: "workoutPlanId", Kind: schema.KindSelect, Label: "Workout Plan", WireName: "WorkoutPlanId", Required: true,
			RequiredMessage: "Workout plan selection is required",
			Constraints:     schema.Constraints{OptionSource: refdata.SetWorkoutPlans},
		},
		{
			Key: "personalTrainer", Kind: schema.KindSelect, Label: "Personal Trainer", WireName: "PersonalTrainer",
			// The backend expects "0" for "no trainer", not an absent field.
			EmptyWireValue: "0",
			Constraints:    schema.Constraints{OptionSource: refdata.SetTrainers},
		},
		{Key: "feeStatus", Kind: schema.KindText, Label: "Fee Status", WireName: "FeeStatus"},
		{Key: "amountPaid", Kind: schema.KindText, Label: "Amount Paid", WireName: "AmountPaid"},
		{
			Key: "modeOfPayment", Kind: schema.KindSelect, Label: "Mode of Payment", WireName: "ModeOfPayment",
			Constraints: schema.Constraints{Options: PaymentMethodOptions},
		},
		{Key: "customSessionRate", Kind: schema.KindText, Label: "Custom Session Rate", WireName: "CustomSessionRate"},
	}
}

func optional() *bool {
	v := false
	return &v
}

var profileSpecs = map[Profile]schema.ProfileSpec{
	ProfileFull: {Name: string(ProfileFull)},
	ProfileQuick: {
		Name: string(ProfileQuick),
		Overrides: map[string]schema.Override{
			"email":            {Required: optional()},
			"height":           {Required: optional()},
			"weight":           {Required: optional()},
			"address":          {Required: optional()},
			"idType":           {Required: optional()},
			"id":               {Required: optional()},
			"idDocument":       {Required: optional()},
			"membershipPlanId": {Omit: true},
			"workoutPlanId":    {Omit: true},
			"personalTrainer":  {Omit: true},
			"feeStatus":        {Omit: true},
			"amountPaid":       {Omit: true},
			"modeOfPayment":    {Omit: true},
			"customSessionRate": {Omit: true},
		},
	},
	ProfileMinimal: {
		Name: string(ProfileMinimal),
		Overrides: map[string]schema.Override{
			"email":                    {Required: optional()},
			"gender":                   {Required: optional()},
			"profilePicture":           {Omit: true},
			"height":                   {Omit: true},
			"weight":                   {Omit: true},
			"dob":                      {Omit: true},
			"doj":                      {Omit: true},
			"bloodGroup":               {Omit: true},
			"address":                  {Omit: true},
			"purpose":                  {Omit: true},
			"medicalHistory":           {Omit: true},
			"idType":                   {Omit: true},
			"id":                       {Omit: true},
			"idDocument":               {Omit: true},
			"emergencyContactName":     {Omit: true},
			"emergencyContactPhone":    {Omit: true},
			"emergencyContactRelation": {Omit: true},
			"membershipPlanId":         {Omit: true},
			"workoutPlanId":            {Omit: true},
			"personalTrainer":          {Omit: true},
			"feeStatus":                {Omit: true},
			"amountPaid":               {Omit: true},
			"modeOfPayment":            {Omit: true},
			"customSessionRate":        {Omit: true},
		},
	},
}

// NewSchema builds the registration schema for a profile. The date-of-joining
// default is captured at call time, so build one schema per registration.
func NewSchema(profile Profile) (*schema.Schema, error) {
	return NewSchemaAt(profile, time.Now())
}

// NewSchemaAt is NewSchema with an explicit clock, for tests.
func NewSchemaAt(profile Profile, now time.Time) (*schema.Schema, error) {
	spec, ok := profileSpecs[profile]
	if !ok {
		return nil, fmt.Errorf("member: unknown intake profile %q", profile)
	}
	base, err := schema.Define(baseFields(now)...)
	if err != nil {
		return nil, err
	}
	return base.Resolve(spec)
}
