package request

import "strings"

type ResolveDisputeRequest struct {
	Action string  `json:"action" binding:"required,oneof=refund reject"`
	Note   *string `json:"note,omitempty"`
}

func (r ResolveDisputeRequest) IsRefund() bool {
	return r.Action == "refund"
}

func (r ResolveDisputeRequest) GetNote() string {
	if r.Note == nil {
		return ""
	}
	return strings.TrimSpace(*r.Note)
}
