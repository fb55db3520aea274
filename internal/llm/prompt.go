package llm

import "strings"

// recordTemplate is the output shape the model must fill in.
const recordTemplate = `{
  "RequestingParty": {
    "InsuranceCompany": "",
    "Handler": "",
    "CarrierClaimNumber": ""
  },
  "InsuredInformation": {
    "Name": "",
    "ContactNumber": "",
    "LossAddress": "",
    "PublicAdjuster": "",
    "OwnerOrTenant": ""
  },
  "AdjusterInformation": {
    "AdjusterName": "",
    "AdjusterPhoneNumber": "",
    "AdjusterEmail": "",
    "JobTitle": "",
    "Address": "",
    "PolicyNumber": ""
  },
  "AssignmentInformation": {
    "DateOfLoss": "",
    "CauseOfLoss": "",
    "FactsOfLoss": "",
    "LossDescription": "",
    "ResidenceOccupiedDuringLoss": "",
    "WasSomeoneHome": "",
    "RepairProgress": "",
    "Type": "",
    "InspectionType": ""
  },
  "AssignmentType": {
    "Wind": false,
    "Structural": false,
    "Hail": false,
    "Foundation": false,
    "Other": {
      "Checked": false,
      "Details": ""
    }
  },
  "AdditionalDetails": "",
  "Attachments": [],
  "Entities": {}
}`

// BuildPrompt embeds the email in the extraction instructions.
func BuildPrompt(email string) string {
	var b strings.Builder
	b.WriteString("You are an assistant specialized in extracting information from insurance claim emails. ")
	b.WriteString("Extract the following information from the email content and answer in pure JSON, ")
	b.WriteString("without markdown, code blocks, explanations or comments. ")
	b.WriteString("The JSON must follow this template exactly: same keys, no additional keys.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Use \"N/A\" for any text field not present in the email.\n")
	b.WriteString("- Dates as YYYY-MM-DD. Phone numbers as (XXX) XXX-XXXX.\n")
	b.WriteString("- ResidenceOccupiedDuringLoss and WasSomeoneHome are \"Yes\", \"No\" or \"N/A\".\n")
	b.WriteString("- Attachments lists file names or URLs; use [] when there are none.\n")
	b.WriteString("- Leave Entities empty.\n\n")
	b.WriteString("Assignment Schema:\n")
	b.WriteString(recordTemplate)
	b.WriteString("\n\nEmail Content:\n")
	b.WriteString(email)
	b.WriteString("\n\nProvide the extracted information strictly in the JSON format shown above.")
	return b.String()
}
