package model

import "strings"

// NA is the sentinel for an unresolved string field.
const NA = "N/A"

// Record is the canonical extraction result for one assignment email.
// Every field is always present; unresolved values hold sentinels.
type Record struct {
	RequestingParty       RequestingParty       `json:"RequestingParty"`
	InsuredInformation    InsuredInformation    `json:"InsuredInformation"`
	AdjusterInformation   AdjusterInformation   `json:"AdjusterInformation"`
	AssignmentInformation AssignmentInformation `json:"AssignmentInformation"`
	AssignmentType        AssignmentType        `json:"AssignmentType"`
	AdditionalDetails     string                `json:"AdditionalDetails"`
	Attachments           []string              `json:"Attachments"`
	Entities              map[string][]string   `json:"Entities"`
}

// RequestingParty identifies the carrier that sent the assignment
type RequestingParty struct {
	InsuranceCompany   string `json:"InsuranceCompany"`
	Handler            string `json:"Handler"`
	CarrierClaimNumber string `json:"CarrierClaimNumber"`
}

// InsuredInformation describes the policy holder and loss location
type InsuredInformation struct {
	Name           string `json:"Name"`
	ContactNumber  string `json:"ContactNumber"`
	LossAddress    string `json:"LossAddress"`
	PublicAdjuster string `json:"PublicAdjuster"`
	OwnerOrTenant  string `json:"OwnerOrTenant"` // "Owner", "Tenant", "Yes", "No" or N/A
}

// AdjusterInformation describes the carrier's field adjuster
type AdjusterInformation struct {
	AdjusterName        string `json:"AdjusterName"`
	AdjusterPhoneNumber string `json:"AdjusterPhoneNumber"`
	AdjusterEmail       string `json:"AdjusterEmail"`
	JobTitle            string `json:"JobTitle"`
	Address             string `json:"Address"`
	PolicyNumber        string `json:"PolicyNumber"`
}

// AssignmentInformation describes the loss itself
type AssignmentInformation struct {
	DateOfLoss                  string `json:"DateOfLoss"` // YYYY-MM-DD when parseable
	CauseOfLoss                 string `json:"CauseOfLoss"`
	FactsOfLoss                 string `json:"FactsOfLoss"`
	LossDescription             string `json:"LossDescription"`
	ResidenceOccupiedDuringLoss string `json:"ResidenceOccupiedDuringLoss"` // Yes, No or N/A
	WasSomeoneHome              string `json:"WasSomeoneHome"`              // Yes, No or N/A
	RepairProgress              string `json:"RepairProgress"`
	Type                        string `json:"Type"`
	InspectionType              string `json:"InspectionType"`
}

// AssignmentType holds the checkbox group of the assignment
type AssignmentType struct {
	Wind       bool       `json:"Wind"`
	Structural bool       `json:"Structural"`
	Hail       bool       `json:"Hail"`
	Foundation bool       `json:"Foundation"`
	Other      OtherCheck `json:"Other"`
}

// OtherCheck is the "Other" checkbox with its free-text details
type OtherCheck struct {
	Checked bool   `json:"Checked"`
	Details string `json:"Details"`
}

// NewRecord returns a record with every field set to its sentinel.
func NewRecord() *Record {
	r := &Record{
		AssignmentType: AssignmentType{Other: OtherCheck{Details: NA}},
		Attachments:    []string{},
		Entities:       map[string][]string{},
	}
	for _, f := range Fields {
		f.Set(r, NA)
	}
	return r
}

// Normalize restores sentinels on a decoded record: nil collections
// become empty and empty strings become N/A.
func (r *Record) Normalize() {
	if r.Attachments == nil {
		r.Attachments = []string{}
	}
	if r.Entities == nil {
		r.Entities = map[string][]string{}
	}
	for _, f := range Fields {
		if strings.TrimSpace(f.Get(r)) == "" {
			f.Set(r, NA)
		}
	}
	if strings.TrimSpace(r.AssignmentType.Other.Details) == "" {
		r.AssignmentType.Other.Details = NA
	}
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Attachments = append([]string{}, r.Attachments...)
	c.Entities = make(map[string][]string, len(r.Entities))
	for k, v := range r.Entities {
		c.Entities[k] = append([]string{}, v...)
	}
	return &c
}

// MergeEntities adds entities into the record's map, keeping first-seen
// order and dropping duplicates per label.
func (r *Record) MergeEntities(entities map[string][]string) {
	if r.Entities == nil {
		r.Entities = map[string][]string{}
	}
	for label, values := range entities {
		label = strings.ToUpper(strings.TrimSpace(label))
		if label == "" {
			continue
		}
		existing := r.Entities[label]
		seen := make(map[string]bool, len(existing))
		for _, v := range existing {
			seen[v] = true
		}
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			existing = append(existing, v)
		}
		if len(existing) > 0 {
			r.Entities[label] = existing
		}
	}
}
