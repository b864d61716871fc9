package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/ppiankov/claimadjudicate/internal/export"
	"github.com/ppiankov/claimadjudicate/internal/intake"
	"github.com/ppiankov/claimadjudicate/internal/model"
)

// UploadRequest is the JSON body of POST /api/v1/session/upload
type UploadRequest struct {
	Documents []model.Document `json:"documents" validate:"required,min=1,dive"`
}

// ItemPatch is the JSON body of PATCH /api/v1/session/items/{id}.
// At least one field must be set; an amount is applied before the confirmation.
type ItemPatch struct {
	ApprovedAmount *float64 `json:"approvedAmount" validate:"required_without=Confirmed"`
	Confirmed      *bool    `json:"confirmed" validate:"required_without=ApprovedAmount"`
}

// SubmitResponse is returned by POST /api/v1/session/submit
type SubmitResponse struct {
	Decision *model.FinalDecision `json:"decision"`
	Note     string               `json:"note,omitempty"`
}

const maxJSONBody = 1 << 20

func decodeBody(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		return errBadRequest(err, "cannot read request body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errBadRequest(err, "request body is not valid JSON")
	}
	if err := intake.ValidateStruct(dst); err != nil {
		return newAppError(err, http.StatusBadRequest, intake.FormatValidationErrors(err), "request body failed validation")
	}
	return nil
}

func (s *Server) writeSnapshot(w http.ResponseWriter, r *http.Request, code int, message string) {
	writeJSON(w, code, message, sessionFrom(r).Snapshot())
}

func (s *Server) apiGetSession(w http.ResponseWriter, r *http.Request) {
	s.writeSnapshot(w, r, http.StatusOK, "session")
}

func (s *Server) apiStart(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).StartNewClaim(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSnapshot(w, r, http.StatusOK, "upload documents")
}

func (s *Server) apiNewClaim(w http.ResponseWriter, r *http.Request) {
	s.apiStart(w, r)
}

func (s *Server) apiHome(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).ReturnHome()
	s.writeSnapshot(w, r, http.StatusOK, "home")
}

func (s *Server) apiUpload(w http.ResponseWriter, r *http.Request) {
	var req UploadRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	docs, err := s.intake.Check(req.Documents)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := sessionFrom(r).Upload(docs, s.pipeline); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSnapshot(w, r, http.StatusAccepted, "processing started")
}

func (s *Server) apiEnterReview(w http.ResponseWriter, r *http.Request) {
	if err := sessionFrom(r).EnterReview(); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSnapshot(w, r, http.StatusOK, "review")
}

func (s *Server) apiPatchItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id, err := itemID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var patch ItemPatch
	if err := decodeBody(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}

	if patch.ApprovedAmount != nil {
		amount, err := roundAmount(*patch.ApprovedAmount)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if err := sess.SetApprovedAmount(id, amount); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if patch.Confirmed != nil {
		if err := sess.SetConfirmed(id, *patch.Confirmed); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.writeSnapshot(w, r, http.StatusOK, "item updated")
}

func (s *Server) apiSubmit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	decision, err := sess.Submit()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.attachNote(r.Context(), sess, decision)
	writeJSON(w, http.StatusOK, "decision submitted", SubmitResponse{Decision: decision, Note: sess.Note()})
}

func (s *Server) apiExport(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, errBadRequest(err, "unknown export format"))
		return
	}
	doc, err := export.Build(sess.Decision(), s.exportOptions(sess))
	if err != nil {
		if errors.Is(err, export.ErrNoDecision) {
			s.writeError(w, errNotFound(err, "There is no submitted decision to export"))
			return
		}
		s.writeError(w, err)
		return
	}
	s.writeExport(w, doc, format)
}
