package refdata

import (
	"strconv"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
)

// Names of the option sets a gym's reference data provides. Field descriptors
// reference these through Constraints.OptionSource.
const (
	SetMembershipPlans = "membershipPlans"
	SetWorkoutPlans    = "workoutPlans"
	SetTrainers        = "trainers"
	SetCertificates    = "certificatesOptions"
)

// MembershipPlan is one purchasable package of a gym.
type MembershipPlan struct {
	MembershipPlanID int64   `json:"membershipPlanId"`
	PlanName         string  `json:"planName"`
	Details          string  `json:"details"`
	Fee              float64 `json:"fee"`
	DurationInDays   int     `json:"durationInDays"`
}

// WorkoutPlan is one selectable workout programme.
type WorkoutPlan struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"isDefault"`
}

// Trainer is one personal trainer of the gym.
type Trainer struct {
	ID          int64  `json:"id"`
	TrainerName string `json:"trainerName"`
}

// CertificateOption is one selectable trainer certificate.
type CertificateOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FormOptions is the reference data backing a gym's registration form,
// fetched once per gym and cached for the lifetime of that context.
type FormOptions struct {
	WorkoutPlans        []WorkoutPlan       `json:"workoutPlans"`
	MembershipPlans     []MembershipPlan    `json:"membershipPlans"`
	Trainers            []Trainer           `json:"trainers"`
	CertificatesOptions []CertificateOption `json:"certificatesOptions"`
}

// OptionSets converts the fetched reference data into the option sets the
// validator checks membership against. Option values carry the numeric
// identifiers as strings, matching what the wire expects.
func (o *FormOptions) OptionSets() map[string][]schema.Option {
	sets := make(map[string][]schema.Option, 4)

	plans := make([]schema.Option, 0, len(o.MembershipPlans))
	for _, plan := range o.MembershipPlans {
		plans = append(plans, schema.Option{
			Label: plan.PlanName,
			Value: strconv.FormatInt(plan.MembershipPlanID, 10),
		})
	}
	sets[SetMembershipPlans] = plans

	workouts := make([]schema.Option, 0, len(o.WorkoutPlans))
	for _, plan := range o.WorkoutPlans {
		workouts = append(workouts, schema.Option{
			Label: plan.Name,
			Value: strconv.FormatInt(plan.ID, 10),
		})
	}
	sets[SetWorkoutPlans] = workouts

	trainers := make([]schema.Option, 0, len(o.Trainers))
	for _, trainer := range o.Trainers {
		trainers = append(trainers, schema.Option{
			Label: trainer.TrainerName,
			Value: strconv.FormatInt(trainer.ID, 10),
		})
	}
	sets[SetTrainers] = trainers

	certificates := make([]schema.Option, 0, len(o.CertificatesOptions))
	for _, cert := range o.CertificatesOptions {
		certificates = append(certificates, schema.Option{
			Label: cert.Name,
			Value: strconv.FormatInt(cert.ID, 10),
		})
	}
	sets[SetCertificates] = certificates

	return sets
}

// DefaultWorkoutPlan returns the plan flagged as the gym's default, if any.
func (o *FormOptions) DefaultWorkoutPlan() (WorkoutPlan, bool) {
	for _, plan := range o.WorkoutPlans {
		if plan.IsDefault {
			return plan, true
		}
	}
	return WorkoutPlan{}, false
}
