package member

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
)

func TestNewSchema_FullProfile(t *testing.T) {
	s, err := NewSchema(ProfileFull)
	require.NoError(t, err)

	for _, key := range []string{
		"name", "email", "phone", "gender", "dob", "doj", "bloodGroup",
		"address", "idType", "id", "idDocument", "membershipPlanId",
		"workoutPlanId", "personalTrainer", "amountPaid",
	} {
		require.True(t, s.Has(key), "full profile should declare %q", key)
	}

	email, err := s.Field("email")
	require.NoError(t, err)
	require.True(t, email.Required)

	trainer, err := s.Field("personalTrainer")
	require.NoError(t, err)
	require.False(t, trainer.Required)
	require.Equal(t, "0", trainer.EmptyWireValue)
	require.Equal(t, "PersonalTrainer", trainer.WireName)
}

func TestNewSchema_QuickProfile(t *testing.T) {
	s, err := NewSchema(ProfileQuick)
	require.NoError(t, err)

	require.False(t, s.Has("membershipPlanId"), "plan selection is settled at the front desk")
	require.False(t, s.Has("amountPaid"))

	email, err := s.Field("email")
	require.NoError(t, err)
	require.False(t, email.Required, "quick intake demotes email to optional")

	name, err := s.Field("name")
	require.NoError(t, err)
	require.True(t, name.Required)
}

func TestNewSchema_MinimalProfile(t *testing.T) {
	s, err := NewSchema(ProfileMinimal)
	require.NoError(t, err)

	require.True(t, s.Has("name"))
	require.True(t, s.Has("phone"))
	require.True(t, s.Has("email"))
	require.False(t, s.Has("dob"))
	require.False(t, s.Has("idDocument"))
}

func TestNewSchema_UnknownProfile(t *testing.T) {
	_, err := NewSchema(Profile("walk-in"))
	require.Error(t, err)
}

func TestNewSchemaAt_JoiningDateDefault(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)
	s, err := NewSchemaAt(ProfileFull, now)
	require.NoError(t, err)

	doj, err := s.Field("doj")
	require.NoError(t, err)
	def, _ := doj.Default.Str()
	require.Equal(t, "2026-08-28T10:30:00Z", def)
}

func TestWireNames(t *testing.T) {
	s, err := NewSchema(ProfileFull)
	require.NoError(t, err)

	wire := map[string]string{
		"name":       "Name",
		"purpose":    "FitnessGoal",
		"id":         "IdNumber",
		"idDocument": "IdCopy",
		"profilePicture": "Photo",
	}
	for key, want := range wire {
		field, err := s.Field(key)
		require.NoError(t, err)
		require.Equal(t, want, field.WireName, "wire name for %q", key)
	}
}

func TestStaticOptionSetsAreWired(t *testing.T) {
	s, err := NewSchema(ProfileFull)
	require.NoError(t, err)

	gender, err := s.Field("gender")
	require.NoError(t, err)
	require.NotEmpty(t, gender.Constraints.Options)

	plan, err := s.Field("membershipPlanId")
	require.NoError(t, err)
	require.Empty(t, plan.Constraints.Options)
	require.Equal(t, "membershipPlans", plan.Constraints.OptionSource)
}

func TestProfilesAreDefined(t *testing.T) {
	for _, profile := range Profiles() {
		_, err := NewSchema(profile)
		require.NoError(t, err, "profile %q must resolve", profile)
	}
}

func TestBaseFieldKindsAreKnown(t *testing.T) {
	s, err := NewSchema(ProfileFull)
	require.NoError(t, err)
	for _, field := range s.Fields() {
		require.NotEqual(t, schema.FieldKind(""), field.Kind, "field %q", field.Key)
	}
}
