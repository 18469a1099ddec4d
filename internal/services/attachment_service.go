package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"tripconsole/internal/blob"
	"tripconsole/internal/domain"
	"tripconsole/internal/domain/models"
	"tripconsole/internal/envelope"
	"tripconsole/internal/refkey"
	"tripconsole/internal/utils"

	"github.com/google/uuid"
)

const (
	metaOwner = "owner"
	metaName  = "name"
)

// AttachmentService stages files, commits them to the backend under a
// reference key and fetches or deletes attachments by key.
type AttachmentService struct {
	Backend   Backend
	Blobs     blob.Store
	MaxBytes  int64
	RequestID string
}

// UploadInput is one file of a multipart stage request.
type UploadInput struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

type StagedFile struct {
	Handle      string `json:"handle"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
}

type FileError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type StageResult struct {
	Staged   []StagedFile `json:"staged"`
	Rejected []FileError  `json:"rejected"`
}

// Stage checks each file against the size limit and keeps the accepted
// ones in the blob store. An oversized file is rejected alone.
func (s AttachmentService) Stage(ctx context.Context, rc domain.RequestContext, files []UploadInput) StageResult {
	out := StageResult{Staged: []StagedFile{}, Rejected: []FileError{}}
	for _, f := range files {
		staged, err := s.stageOne(ctx, rc, f)
		if err != nil {
			utils.LogEvent(s.RequestID, "attachment", "stage_rejected", fmt.Sprintf("name=%s err=%v", f.Name, err))
			out.Rejected = append(out.Rejected, FileError{Name: f.Name, Message: domain.UserMessage(err)})
			continue
		}
		out.Staged = append(out.Staged, staged)
	}
	return out
}

func (s AttachmentService) stageOne(ctx context.Context, rc domain.RequestContext, f UploadInput) (StagedFile, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return StagedFile{}, domain.ValidationError{Field: "file", Msg: "file name is required"}
	}
	if s.MaxBytes > 0 && f.Size > s.MaxBytes {
		return StagedFile{}, domain.FileTooLargeError{Name: name, Size: f.Size, Limit: s.MaxBytes}
	}
	body, err := f.Open()
	if err != nil {
		return StagedFile{}, domain.InternalError{Msg: "read upload", Err: err}
	}
	defer body.Close()

	var r io.Reader = body
	if s.MaxBytes > 0 {
		// declared sizes can lie; never store more than the limit
		r = io.LimitReader(body, s.MaxBytes+1)
	}
	handle := uuid.NewString()
	info, err := s.Blobs.Put(ctx, handle, r, blob.PutOptions{
		ContentType: f.ContentType,
		Metadata:    map[string]string{metaOwner: rc.UserID, metaName: name},
	})
	if err != nil {
		return StagedFile{}, domain.InternalError{Msg: "stage file", Err: err}
	}
	if s.MaxBytes > 0 && info.Size > s.MaxBytes {
		_, _ = s.Blobs.Delete(ctx, handle)
		return StagedFile{}, domain.FileTooLargeError{Name: name, Size: info.Size, Limit: s.MaxBytes}
	}
	return StagedFile{Handle: handle, Name: name, Size: info.Size, ContentType: f.ContentType}, nil
}

// KeyRequest names a reference key by family, document number and the
// family's anchors.
type KeyRequest struct {
	Family  string            `json:"family"`
	DocNo   string            `json:"docNo"`
	Anchors map[string]string `json:"anchors"`
}

func (k KeyRequest) tuple() (refkey.Tuple, error) {
	f, ok := refkey.LookupFamily(k.Family)
	if !ok {
		return refkey.Tuple{}, domain.ValidationError{Field: "family", Msg: fmt.Sprintf("unknown reference family %q", k.Family)}
	}
	return refkey.BuildKey(f, k.DocNo, k.Anchors)
}

type CommitRequest struct {
	KeyRequest
	AttachmentType string   `json:"attachmentType"`
	Remarks        string   `json:"remarks"`
	Handles        []string `json:"handles"`
}

type CommitResult struct {
	Saved  []models.AttachItem `json:"saved"`
	Failed []FileError         `json:"failed"`
}

type attachPayload struct {
	AttachItems []models.AttachItem `json:"AttachItems"`
}

// Commit uploads and binds the staged files one at a time. A failed file
// is reported and the rest of the batch continues.
func (s AttachmentService) Commit(ctx context.Context, rc domain.RequestContext, req CommitRequest) (CommitResult, error) {
	key, err := req.tuple()
	if err != nil {
		return CommitResult{}, err
	}
	if len(req.Handles) == 0 {
		return CommitResult{}, domain.ValidationError{Field: "handles", Msg: "no staged files"}
	}

	out := CommitResult{Saved: []models.AttachItem{}, Failed: []FileError{}}
	for _, handle := range req.Handles {
		item, name, err := s.commitOne(ctx, rc, key, req, handle)
		if err != nil {
			utils.LogEvent(s.RequestID, "attachment", "commit_failed", fmt.Sprintf("handle=%s err=%v", handle, err))
			if name == "" {
				name = handle
			}
			out.Failed = append(out.Failed, FileError{Name: name, Message: domain.UserMessage(err)})
			continue
		}
		out.Saved = append(out.Saved, item)
	}
	utils.LogEvent(s.RequestID, "attachment", "commit", fmt.Sprintf("ref=%s/%s saved=%d failed=%d",
		key.ReferenceType, key.ReferenceDocNo, len(out.Saved), len(out.Failed)))
	return out, nil
}

func (s AttachmentService) commitOne(ctx context.Context, rc domain.RequestContext, key refkey.Tuple, req CommitRequest, handle string) (models.AttachItem, string, error) {
	info, body, err := s.Blobs.Get(ctx, handle)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return models.AttachItem{}, "", domain.NotFoundError{Resource: "staged file", Err: err}
		}
		return models.AttachItem{}, "", domain.InternalError{Msg: "read staged file", Err: err}
	}
	defer body.Close()

	name := info.Metadata[metaName]
	if info.Metadata[metaOwner] != rc.UserID {
		return models.AttachItem{}, "", domain.NotFoundError{Resource: "staged file"}
	}

	res, err := s.Backend.Upload(ctx, envelope.PathUpload, name, body)
	if err != nil {
		return models.AttachItem{}, name, err
	}
	if err := res.Err(); err != nil {
		return models.AttachItem{}, name, err
	}
	uploaded, err := decodeUploaded(res.Data)
	if err != nil {
		return models.AttachItem{}, name, err
	}

	item := key.Apply(models.AttachItem{
		AttachmentType:   req.AttachmentType,
		AttachName:       uploaded.AttachName,
		AttachUniqueName: uploaded.AttachUniqueName,
		AttachRelPath:    uploaded.AttachRelPath,
		Remarks:          req.Remarks,
		ModeFlag:         domain.ModeInsert,
	})
	if item.AttachName == "" {
		item.AttachName = name
	}
	bind := envelope.New(envelope.MsgSaveAttachment, rc).WithPayload(attachPayload{AttachItems: []models.AttachItem{item}})
	if _, err := invoke(ctx, s.Backend, envelope.PathAttachment, bind, nil); err != nil {
		return models.AttachItem{}, name, err
	}
	if _, err := s.Blobs.Delete(ctx, handle); err != nil {
		utils.LogEvent(s.RequestID, "attachment", "unstage_failed", fmt.Sprintf("handle=%s err=%v", handle, err))
	}
	return item, name, nil
}

// decodeUploaded accepts a single uploaded-file object or a one-element
// list.
func decodeUploaded(data json.RawMessage) (models.UploadedFile, error) {
	data = bytes.TrimSpace(data)
	var out models.UploadedFile
	switch {
	case len(data) == 0:
	case data[0] == '[':
		var list []models.UploadedFile
		if err := json.Unmarshal(data, &list); err != nil {
			return out, domain.InternalError{Msg: "unexpected upload payload", Err: err}
		}
		if len(list) > 0 {
			out = list[0]
		}
	default:
		if err := json.Unmarshal(data, &out); err != nil {
			return out, domain.InternalError{Msg: "unexpected upload payload", Err: err}
		}
	}
	if out.AttachUniqueName == "" {
		return out, domain.InternalError{Msg: "upload returned no stored file name"}
	}
	return out, nil
}

// Fetch lists the attachments stored under the key. Rows the backend
// returns that do not match the key exactly are dropped.
func (s AttachmentService) Fetch(ctx context.Context, rc domain.RequestContext, k KeyRequest) ([]models.AttachItem, error) {
	key, err := k.tuple()
	if err != nil {
		return nil, err
	}
	req := envelope.New(envelope.MsgGetAttachment, rc).WithCriteria(key.Criteria())
	res, err := invoke(ctx, s.Backend, envelope.PathAttachment, req, nil)
	if err != nil {
		return nil, err
	}

	var items []models.AttachItem
	data := bytes.TrimSpace(res.Data)
	if len(data) > 0 && data[0] == '[' {
		err = json.Unmarshal(data, &items)
	} else if len(data) > 0 {
		var p attachPayload
		err = json.Unmarshal(data, &p)
		items = p.AttachItems
	}
	if err != nil {
		return nil, domain.InternalError{Msg: "unexpected attachment payload", Err: err}
	}

	out := []models.AttachItem{}
	for _, it := range items {
		if refkey.Matches(key, refkey.FromItem(it)) {
			out = append(out, it)
		}
	}
	if dropped := len(items) - len(out); dropped > 0 {
		utils.LogEvent(s.RequestID, "attachment", "fetch_filtered", fmt.Sprintf("ref=%s/%s dropped=%d", key.ReferenceType, key.ReferenceDocNo, dropped))
	}
	return out, nil
}

// Delete removes stored attachments. Each item must carry its reference
// key and stored file name.
func (s AttachmentService) Delete(ctx context.Context, rc domain.RequestContext, items []models.AttachItem) error {
	if len(items) == 0 {
		return domain.ValidationError{Field: "AttachItems", Msg: "nothing to delete"}
	}
	out := make([]models.AttachItem, 0, len(items))
	for _, it := range items {
		if it.ReferenceType == "" || it.ReferenceDocNo == "" || it.AttachUniqueName == "" {
			return domain.ValidationError{Field: "AttachItems", Msg: "reference key and AttachUniqueName are required"}
		}
		it.ModeFlag = domain.ModeDelete
		out = append(out, it)
	}
	req := envelope.New(envelope.MsgSaveAttachment, rc).WithPayload(attachPayload{AttachItems: out})
	if _, err := invoke(ctx, s.Backend, envelope.PathAttachment, req, nil); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "attachment", "delete", fmt.Sprintf("count=%d", len(out)))
	return nil
}
