package model

import "strings"

// Section headers recognized in assignment emails
const (
	SectionRequestingParty       = "Requesting Party"
	SectionInsuredInformation    = "Insured Information"
	SectionAdjusterInformation   = "Adjuster Information"
	SectionAssignmentInformation = "Assignment Information"
	SectionAssignmentType        = "Assignment Type"
	SectionAdditionalDetails     = "Additional details/Special Instructions"
	SectionAttachments           = "Attachment(s)"
)

// DefaultSectionHeaders is the ordered list of headers used when no
// configuration document overrides it.
var DefaultSectionHeaders = []string{
	SectionRequestingParty,
	SectionInsuredInformation,
	SectionAdjusterInformation,
	SectionAssignmentInformation,
	SectionAssignmentType,
	SectionAdditionalDetails,
	SectionAttachments,
}

// FieldKind selects the value normalization applied to a field
type FieldKind int

const (
	KindText        FieldKind = iota // trimmed verbatim
	KindDate                         // canonical YYYY-MM-DD
	KindBoolean                      // Yes / No / N/A
	KindPhone                        // (XXX) XXX-XXXX
	KindEmail                        // lower-cased
	KindOwnerTenant                  // Owner / Tenant / Yes / No / N/A
)

// Field describes one string-valued field of a Record
type Field struct {
	Section string    // owning section header
	Name    string    // display name used in emails and configuration documents
	Key     string    // JSON key inside the section object
	Kind    FieldKind // normalization route
	ref     func(*Record) *string
}

// Get returns the field's current value in r.
func (f Field) Get(r *Record) string { return *f.ref(r) }

// Set stores v into the field of r.
func (f Field) Set(r *Record, v string) { *f.ref(r) = v }

// Fields lists every string field of a Record in schema order.
var Fields = []Field{
	{SectionRequestingParty, "Insurance Company", "InsuranceCompany", KindText, func(r *Record) *string { return &r.RequestingParty.InsuranceCompany }},
	{SectionRequestingParty, "Handler", "Handler", KindText, func(r *Record) *string { return &r.RequestingParty.Handler }},
	{SectionRequestingParty, "Carrier Claim Number", "CarrierClaimNumber", KindText, func(r *Record) *string { return &r.RequestingParty.CarrierClaimNumber }},

	{SectionInsuredInformation, "Name", "Name", KindText, func(r *Record) *string { return &r.InsuredInformation.Name }},
	{SectionInsuredInformation, "Contact #", "ContactNumber", KindPhone, func(r *Record) *string { return &r.InsuredInformation.ContactNumber }},
	{SectionInsuredInformation, "Loss Address", "LossAddress", KindText, func(r *Record) *string { return &r.InsuredInformation.LossAddress }},
	{SectionInsuredInformation, "Public Adjuster", "PublicAdjuster", KindText, func(r *Record) *string { return &r.InsuredInformation.PublicAdjuster }},
	{SectionInsuredInformation, "Owner or Tenant", "OwnerOrTenant", KindOwnerTenant, func(r *Record) *string { return &r.InsuredInformation.OwnerOrTenant }},

	{SectionAdjusterInformation, "Adjuster Name", "AdjusterName", KindText, func(r *Record) *string { return &r.AdjusterInformation.AdjusterName }},
	{SectionAdjusterInformation, "Adjuster Phone Number", "AdjusterPhoneNumber", KindPhone, func(r *Record) *string { return &r.AdjusterInformation.AdjusterPhoneNumber }},
	{SectionAdjusterInformation, "Adjuster Email", "AdjusterEmail", KindEmail, func(r *Record) *string { return &r.AdjusterInformation.AdjusterEmail }},
	{SectionAdjusterInformation, "Job Title", "JobTitle", KindText, func(r *Record) *string { return &r.AdjusterInformation.JobTitle }},
	{SectionAdjusterInformation, "Address", "Address", KindText, func(r *Record) *string { return &r.AdjusterInformation.Address }},
	{SectionAdjusterInformation, "Policy #", "PolicyNumber", KindText, func(r *Record) *string { return &r.AdjusterInformation.PolicyNumber }},

	{SectionAssignmentInformation, "Date of Loss/Occurrence", "DateOfLoss", KindDate, func(r *Record) *string { return &r.AssignmentInformation.DateOfLoss }},
	{SectionAssignmentInformation, "Cause of loss", "CauseOfLoss", KindText, func(r *Record) *string { return &r.AssignmentInformation.CauseOfLoss }},
	{SectionAssignmentInformation, "Facts of Loss", "FactsOfLoss", KindText, func(r *Record) *string { return &r.AssignmentInformation.FactsOfLoss }},
	{SectionAssignmentInformation, "Loss Description", "LossDescription", KindText, func(r *Record) *string { return &r.AssignmentInformation.LossDescription }},
	{SectionAssignmentInformation, "Residence Occupied During Loss", "ResidenceOccupiedDuringLoss", KindBoolean, func(r *Record) *string { return &r.AssignmentInformation.ResidenceOccupiedDuringLoss }},
	{SectionAssignmentInformation, "Was Someone home at time of damage", "WasSomeoneHome", KindBoolean, func(r *Record) *string { return &r.AssignmentInformation.WasSomeoneHome }},
	{SectionAssignmentInformation, "Repair or Mitigation Progress", "RepairProgress", KindText, func(r *Record) *string { return &r.AssignmentInformation.RepairProgress }},
	{SectionAssignmentInformation, "Type", "Type", KindText, func(r *Record) *string { return &r.AssignmentInformation.Type }},
	{SectionAssignmentInformation, "Inspection type", "InspectionType", KindText, func(r *Record) *string { return &r.AssignmentInformation.InspectionType }},

	{SectionAdditionalDetails, "Additional details/Special Instructions", "AdditionalDetails", KindText, func(r *Record) *string { return &r.AdditionalDetails }},
}

// FieldByName looks a field up by display name or JSON key, ignoring case.
// Configuration loaders lower-case keys, so lookups must not depend on case.
func FieldByName(name string) (Field, bool) {
	name = strings.TrimSpace(name)
	for _, f := range Fields {
		if strings.EqualFold(f.Name, name) || strings.EqualFold(f.Key, name) {
			return f, true
		}
	}
	return Field{}, false
}

// SectionFields returns the fields owned by a section, in schema order.
func SectionFields(section string) []Field {
	var out []Field
	for _, f := range Fields {
		if strings.EqualFold(f.Section, section) {
			out = append(out, f)
		}
	}
	return out
}

// CanonicalSection maps a header to its built-in spelling, or returns
// it unchanged when it is not a built-in header.
func CanonicalSection(header string) string {
	for _, h := range DefaultSectionHeaders {
		if strings.EqualFold(h, strings.TrimSpace(header)) {
			return h
		}
	}
	return header
}
