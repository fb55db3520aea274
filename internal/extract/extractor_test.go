package extract

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/ppiankov/assignparse/internal/model"
	"github.com/ppiankov/assignparse/internal/normalize"
)

const fullEmail = `From: claims@statefarm.example
Subject: New assignment

Requesting Party
Insurance Company: State Farm
Handler: Jane Smith
Claim Number: 45-88X1-002

Insured Information
Name: Robert Paulson
Contact #: 512.555.0199
Loss Address: 12 Elm St, Austin TX 78701
Public Adjuster: None
Is the insured an Owner or a Tenant of the loss location? Owner

Adjuster Information
Adjuster Name: Michael Brown
Adjuster Phone Number: 5551234567
Adjuster Email: M.Brown@StateFarm.example
Job Title: Field Adjuster
Address: 1 Carrier Way, Dallas TX
Policy Number: ABC123

Assignment Information
Date of Loss/Occurrence: 03/14/2023
Cause of loss: Hail
Facts of Loss: Storm passed over the property
Loss Description: Roof shingles damaged
Residence Occupied During Loss: Yes
Was Someone home at time of damage: no
Repair or Mitigation Progress: Tarped
Type: Residential
Inspection type: Roof

Assignment Type
Wind [ ]
Structural [ ]
Hail [X]
Foundation [ ]
Other [x] - provide details: check gutters

Additional details/Special Instructions
Call the insured before arriving.

Attachment(s)
photos.zip, estimate.pdf, notes
`

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := New(model.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func TestExtractor_FullEmail(t *testing.T) {
	e := newTestExtractor(t)
	rec, diag := e.Extract(fullEmail)

	checks := map[string]string{
		"InsuranceCompany":            rec.RequestingParty.InsuranceCompany,
		"Handler":                     rec.RequestingParty.Handler,
		"CarrierClaimNumber":          rec.RequestingParty.CarrierClaimNumber,
		"Name":                        rec.InsuredInformation.Name,
		"ContactNumber":               rec.InsuredInformation.ContactNumber,
		"OwnerOrTenant":               rec.InsuredInformation.OwnerOrTenant,
		"AdjusterPhoneNumber":         rec.AdjusterInformation.AdjusterPhoneNumber,
		"AdjusterEmail":               rec.AdjusterInformation.AdjusterEmail,
		"Address":                     rec.AdjusterInformation.Address,
		"PolicyNumber":                rec.AdjusterInformation.PolicyNumber,
		"DateOfLoss":                  rec.AssignmentInformation.DateOfLoss,
		"ResidenceOccupiedDuringLoss": rec.AssignmentInformation.ResidenceOccupiedDuringLoss,
		"WasSomeoneHome":              rec.AssignmentInformation.WasSomeoneHome,
		"Type":                        rec.AssignmentInformation.Type,
		"InspectionType":              rec.AssignmentInformation.InspectionType,
		"AdditionalDetails":           rec.AdditionalDetails,
	}
	want := map[string]string{
		"InsuranceCompany":            "State Farm",
		"Handler":                     "Jane Smith",
		"CarrierClaimNumber":          "45-88X1-002",
		"Name":                        "Robert Paulson",
		"ContactNumber":               "(512) 555-0199",
		"OwnerOrTenant":               "Owner",
		"AdjusterPhoneNumber":         "(555) 123-4567",
		"AdjusterEmail":               "m.brown@statefarm.example",
		"Address":                     "1 Carrier Way, Dallas TX",
		"PolicyNumber":                "ABC123",
		"DateOfLoss":                  "2023-03-14",
		"ResidenceOccupiedDuringLoss": "Yes",
		"WasSomeoneHome":              "No",
		"Type":                        "Residential",
		"InspectionType":              "Roof",
		"AdditionalDetails":           "Call the insured before arriving.",
	}
	for key, expected := range want {
		if checks[key] != expected {
			t.Errorf("%s: expected %q, got %q", key, expected, checks[key])
		}
	}

	if !rec.AssignmentType.Hail || rec.AssignmentType.Wind {
		t.Errorf("unexpected checkbox flags: %+v", rec.AssignmentType)
	}
	if !rec.AssignmentType.Other.Checked || rec.AssignmentType.Other.Details != "check gutters" {
		t.Errorf("unexpected Other: %+v", rec.AssignmentType.Other)
	}
	if !reflect.DeepEqual(rec.Attachments, []string{"photos.zip", "estimate.pdf"}) {
		t.Errorf("unexpected attachments: %v", rec.Attachments)
	}

	foundFallback := false
	for _, f := range diag.Fallback {
		if f == "Carrier Claim Number" {
			foundFallback = true
		}
	}
	if !foundFallback {
		t.Errorf("expected Carrier Claim Number to be tagged as fallback, got %v", diag.Fallback)
	}
}

func TestExtractor_FormatsTenDigitPhone(t *testing.T) {
	e := newTestExtractor(t)
	rec, _ := e.Extract("Adjuster Information\nAdjuster Phone Number: 5551234567\n")

	if rec.AdjusterInformation.AdjusterPhoneNumber != "(555) 123-4567" {
		t.Errorf("expected (555) 123-4567, got %q", rec.AdjusterInformation.AdjusterPhoneNumber)
	}
}

func TestExtractor_ReadsCheckedBoxes(t *testing.T) {
	e := newTestExtractor(t)
	rec, _ := e.Extract("Assignment Type\nWind [X]\nHail [ ]\n")

	if !rec.AssignmentType.Wind {
		t.Error("expected Wind to be true")
	}
	if rec.AssignmentType.Hail {
		t.Error("expected Hail to be false")
	}
}

func TestExtractor_CanonicalizesNumericDate(t *testing.T) {
	e := newTestExtractor(t)
	rec, _ := e.Extract("Assignment Information\nDate of Loss/Occurrence: 03/14/2023\n")

	if rec.AssignmentInformation.DateOfLoss != "2023-03-14" {
		t.Errorf("expected 2023-03-14, got %q", rec.AssignmentInformation.DateOfLoss)
	}
}

func TestExtractor_DateFallbackMonthName(t *testing.T) {
	e := newTestExtractor(t)
	rec, diag := e.Extract("Assignment Information\nDate of Loss: March 14, 2023\n")

	if rec.AssignmentInformation.DateOfLoss != "2023-03-14" {
		t.Errorf("expected 2023-03-14, got %q", rec.AssignmentInformation.DateOfLoss)
	}
	if len(diag.Fallback) != 1 || diag.Fallback[0] != "Date of Loss/Occurrence" {
		t.Errorf("expected date fallback diagnostic, got %v", diag.Fallback)
	}
}

func TestExtractor_MissingAttachments(t *testing.T) {
	e := newTestExtractor(t)
	rec, _ := e.Extract("Requesting Party\nHandler: Jane Smith\n")

	if rec.Attachments == nil || len(rec.Attachments) != 0 {
		t.Errorf("expected empty attachments, got %#v", rec.Attachments)
	}
}

func TestExtractor_InlineAttachments(t *testing.T) {
	e := newTestExtractor(t)
	rec, _ := e.Extract("Requesting Party\nHandler: Jane Smith\nAttachment(s): roof.jpg; https://example.com/report\n")

	want := []string{"roof.jpg", "https://example.com/report"}
	if !reflect.DeepEqual(rec.Attachments, want) {
		t.Errorf("expected %v, got %v", want, rec.Attachments)
	}
}

func TestExtractor_UnknownBooleanIsNA(t *testing.T) {
	e := newTestExtractor(t)
	rec, _ := e.Extract("Assignment Information\nResidence Occupied During Loss: maybe\n")

	if rec.AssignmentInformation.ResidenceOccupiedDuringLoss != model.NA {
		t.Errorf("expected N/A, got %q", rec.AssignmentInformation.ResidenceOccupiedDuringLoss)
	}
}

func TestExtractor_TotalCoverage(t *testing.T) {
	e := newTestExtractor(t)

	inputs := []string{"", "garbage", fullEmail, "Assignment Type\nOther [x]", strings.Repeat("Requesting Party\n", 3)}
	for _, in := range inputs {
		rec, _ := e.Extract(in)
		for _, f := range model.Fields {
			if f.Get(rec) == "" {
				t.Errorf("input %q: field %q is empty, expected a value or N/A", in, f.Name)
			}
		}
		if rec.Attachments == nil || rec.Entities == nil {
			t.Errorf("input %q: nil collection in record", in)
		}
		if rec.AssignmentType.Other.Details == "" {
			t.Errorf("input %q: Other.Details is empty", in)
		}
	}
}

func TestExtractor_FieldsIndependent(t *testing.T) {
	e := newTestExtractor(t)

	a, _ := e.Extract("Requesting Party\nHandler: Jane Smith\nInsurance Company: Allstate\n")
	b, _ := e.Extract("Requesting Party\nInsurance Company: Allstate\nHandler: Jane Smith\n")

	if a.RequestingParty != b.RequestingParty {
		t.Errorf("field order changed result: %+v vs %+v", a.RequestingParty, b.RequestingParty)
	}
}

func TestFieldExtractor_EmptyCaptureIsNA(t *testing.T) {
	rules, err := CompileRules(model.DefaultPatterns())
	if err != nil {
		t.Fatalf("CompileRules failed: %v", err)
	}
	fe := NewFieldExtractor(rules, normalize.Default(), nil)

	values := fe.ExtractSection(model.SectionRequestingParty, "Handler:   \nInsurance Company: Geico")
	if values["Handler"].Value != model.NA {
		t.Errorf("expected N/A for blank handler, got %q", values["Handler"].Value)
	}
	if values["Insurance Company"].Value != "Geico" {
		t.Errorf("expected Geico, got %q", values["Insurance Company"].Value)
	}
}

func TestCompileRules_Errors(t *testing.T) {
	tests := []struct {
		name     string
		patterns map[string]map[string]model.PatternConfig
	}{
		{"bad regex", map[string]map[string]model.PatternConfig{
			model.SectionRequestingParty: {"Handler": {Primary: `Handler: ([`}},
		}},
		{"no capture group", map[string]map[string]model.PatternConfig{
			model.SectionRequestingParty: {"Handler": {Primary: `Handler:`}},
		}},
		{"unknown field", map[string]map[string]model.PatternConfig{
			model.SectionRequestingParty: {"Favorite Color": {Primary: `Color: (.*)`}},
		}},
		{"wrong section", map[string]map[string]model.PatternConfig{
			model.SectionRequestingParty: {"Adjuster Name": {Primary: `Name: (.*)`}},
		}},
		{"empty primary", map[string]map[string]model.PatternConfig{
			model.SectionRequestingParty: {"Handler": {Fallback: `Handler: (.*)`}},
		}},
	}

	for _, tt := range tests {
		_, err := CompileRules(tt.patterns)
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if !model.IsKind(err, model.KindConfiguration) {
			t.Errorf("%s: expected configuration error, got %v", tt.name, err)
		}
	}
}

func TestCompileRules_CaseInsensitiveKeys(t *testing.T) {
	rules, err := CompileRules(map[string]map[string]model.PatternConfig{
		"requesting party": {"handler": {Primary: `Handled by[ \t]*:[ \t]*([^\n]*)`}},
	})
	if err != nil {
		t.Fatalf("CompileRules failed: %v", err)
	}
	got := rules.Section(model.SectionRequestingParty)
	if len(got) != 1 || got[0].Name != "Handler" {
		t.Fatalf("expected canonical Handler rule, got %+v", got)
	}
}

func brokenRequestingPartyRules() *Rules {
	return &Rules{bySection: map[string][]Rule{
		model.SectionRequestingParty: {
			// nil primary panics inside Match
			{Section: model.SectionRequestingParty, Name: "Insurance Company", Kind: model.KindText},
			{
				Section: model.SectionRequestingParty,
				Name:    "Handler",
				Kind:    model.KindText,
				Primary: regexp.MustCompile(`(?i)Handler\s*:\s*([^\n]+)`),
			},
		},
	}}
}

func TestFieldExtractor_FailingFieldDegradesAlone(t *testing.T) {
	fe := NewFieldExtractor(brokenRequestingPartyRules(), normalize.Default(), nil)

	values := fe.ExtractSection(model.SectionRequestingParty, "Insurance Company: Geico\nHandler: Jane\n")

	if got := values["Insurance Company"]; got.Value != model.NA || got.Source != SourceNone {
		t.Errorf("expected failing field to be N/A, got %+v", got)
	}
	if got := values["Handler"]; got.Value != "Jane" || got.Source != SourcePrimary {
		t.Errorf("expected Handler Jane from primary, got %+v", got)
	}
}

func TestExtractor_FailingFieldKeepsRestOfRecord(t *testing.T) {
	e := newTestExtractor(t)
	e.rules = brokenRequestingPartyRules()
	e.fields = NewFieldExtractor(e.rules, e.normalizer, nil)

	rec, _ := e.Extract("Requesting Party\nInsurance Company: Geico\nHandler: Jane\n")

	if rec.RequestingParty.InsuranceCompany != model.NA {
		t.Errorf("expected N/A insurance company, got %q", rec.RequestingParty.InsuranceCompany)
	}
	if rec.RequestingParty.Handler != "Jane" {
		t.Errorf("expected Handler Jane, got %q", rec.RequestingParty.Handler)
	}
}

func TestExtractor_SectionPanicRecorded(t *testing.T) {
	e := newTestExtractor(t)
	rec := model.NewRecord()
	diag := &Diagnostics{}

	panicking := func(_ *Extractor, rec *model.Record, _ *Diagnostics, _, _, _ string) {
		rec.AdditionalDetails = "partial"
		panic("boom")
	}
	e.runSection(panicking, rec, diag, model.SectionAdditionalDetails, "body", "full")
	e.runSection(extractAdditionalDetails, rec, diag, model.SectionAdditionalDetails, "Call first.", "")

	if len(diag.Warnings) != 1 || !strings.Contains(diag.Warnings[0], "boom") {
		t.Errorf("expected one warning mentioning boom, got %v", diag.Warnings)
	}
	if rec.AdditionalDetails != "Call first." {
		t.Errorf("expected the next section to still run, got %q", rec.AdditionalDetails)
	}
}

func TestExtractor_SpacedBracketBooleans(t *testing.T) {
	e := newTestExtractor(t)
	rec, _ := e.Extract("Assignment Information\nResidence Occupied During Loss: [   ]\nWas Someone home at time of damage: [ x ]\n")

	if rec.AssignmentInformation.WasSomeoneHome != "Yes" {
		t.Errorf("expected Yes, got %q", rec.AssignmentInformation.WasSomeoneHome)
	}
	if rec.AssignmentInformation.ResidenceOccupiedDuringLoss != "No" {
		t.Errorf("expected No, got %q", rec.AssignmentInformation.ResidenceOccupiedDuringLoss)
	}
}
