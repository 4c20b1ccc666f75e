package app

import (
	"strings"

	"containerboard/api/internal/tracker"
)

// Intent is one user action against a workspace. Validate must not look at
// the repository; Apply runs with the workspace locked.
type Intent interface {
	Kind() string
	Validate() error
	Apply(repo *tracker.Repository) error
}

type AddIntent struct {
	ContainerNumber string `json:"containerNumber"`
	JobRef          string `json:"jobRef"`
	ETA             string `json:"eta"`
}

func (AddIntent) Kind() string { return "add" }

func (i AddIntent) Validate() error {
	if strings.TrimSpace(i.ContainerNumber) == "" {
		return &tracker.ValidationError{Field: "containerNumber", Reason: "is required"}
	}
	if strings.TrimSpace(i.JobRef) == "" {
		return &tracker.ValidationError{Field: "jobRef", Reason: "is required"}
	}
	if !tracker.ValidDisplay(i.ETA) {
		return &tracker.ValidationError{Field: "eta", Value: i.ETA, Reason: "expected DD/MM/YYYY"}
	}
	return nil
}

func (i AddIntent) Apply(repo *tracker.Repository) error {
	repo.Add(tracker.NewRecord(strings.TrimSpace(i.ContainerNumber), strings.TrimSpace(i.JobRef), i.ETA))
	return nil
}

type UpdateETAIntent struct {
	Index int    `json:"index"`
	ETA   string `json:"eta"`
}

func (UpdateETAIntent) Kind() string { return "update_eta" }

// Validate checks the format first so a malformed date on a stale index
// reports as a validation failure.
func (i UpdateETAIntent) Validate() error {
	if !tracker.ValidDisplay(i.ETA) {
		return &tracker.ValidationError{Field: "eta", Value: i.ETA, Reason: "expected DD/MM/YYYY"}
	}
	return nil
}

func (i UpdateETAIntent) Apply(repo *tracker.Repository) error {
	return repo.UpdateETA(i.Index, i.ETA)
}

type ToggleClaimIntent struct {
	Index int `json:"index"`
}

func (ToggleClaimIntent) Kind() string    { return "toggle_claim" }
func (ToggleClaimIntent) Validate() error { return nil }

func (i ToggleClaimIntent) Apply(repo *tracker.Repository) error {
	_, err := repo.ToggleClaim(i.Index)
	return err
}

type ToggleHoldIntent struct {
	JobRef string `json:"jobRef"`
	ETAISO string `json:"etaISO"`
}

func (ToggleHoldIntent) Kind() string    { return "toggle_hold" }
func (ToggleHoldIntent) Validate() error { return nil }

func (i ToggleHoldIntent) Apply(repo *tracker.Repository) error {
	_, err := repo.ToggleHold(i.JobRef, i.ETAISO)
	return err
}

type RemoveIntent struct {
	Index int `json:"index"`
}

func (RemoveIntent) Kind() string    { return "remove" }
func (RemoveIntent) Validate() error { return nil }

func (i RemoveIntent) Apply(repo *tracker.Repository) error {
	_, err := repo.Remove(i.Index)
	return err
}
