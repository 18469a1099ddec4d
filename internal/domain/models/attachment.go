package models

import "tripconsole/internal/domain"

// AttachItem is an attachment or POD record. It is not owned by the trip;
// the reference tuple scopes it to a trip, leg, dispatch document or order.
type AttachItem struct {
	ReferenceType    string          `json:"ReferenceType"`
	ReferenceDocNo   string          `json:"ReferenceDocNo"`
	RefDocType1      string          `json:"RefDocType1"`
	RefDocNo1        string          `json:"RefDocNo1"`
	RefDocType2      string          `json:"RefDocType2"`
	RefDocNo2        string          `json:"RefDocNo2"`
	RefDocType3      string          `json:"RefDocType3"`
	RefDocNo3        string          `json:"RefDocNo3"`
	RefDocType4      string          `json:"RefDocType4"`
	RefDocNo4        string          `json:"RefDocNo4"`
	AttachmentType   string          `json:"AttachmentType"`
	AttachName       string          `json:"AttachName"`
	AttachUniqueName string          `json:"AttachUniqueName"`
	AttachRelPath    string          `json:"AttachRelPath"`
	Remarks          string          `json:"Remarks,omitempty"`
	ModeFlag         domain.ModeFlag `json:"ModeFlag,omitempty"`
}

// UploadedFile is what the backend upload endpoint returns for one file.
type UploadedFile struct {
	AttachName       string `json:"AttachName"`
	AttachUniqueName string `json:"AttachUniqueName"`
	AttachRelPath    string `json:"AttachRelPath"`
}
