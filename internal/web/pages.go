package web

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ppiankov/claimadjudicate/internal/export"
	"github.com/ppiankov/claimadjudicate/internal/intake"
	"github.com/ppiankov/claimadjudicate/internal/model"
	"github.com/ppiankov/claimadjudicate/internal/reconcile"
	"github.com/ppiankov/claimadjudicate/internal/session"
	"github.com/ppiankov/claimadjudicate/internal/workflow"
	"go.uber.org/zap"
)

type stepLink struct {
	Step    workflow.Step
	Label   string
	Current bool
	Done    bool
}

type uploadSlot struct {
	Type        model.DocumentType
	Title       string
	Description string
	Required    bool
}

type docTab struct {
	Type     model.DocumentType
	Title    string
	Active   bool
	Uploaded bool
}

type pageData struct {
	Brand  string
	Title  string
	Step   workflow.Step
	Steps  []stepLink
	View   session.View
	Error  string
	Status int

	// upload
	Slots []uploadSlot

	// processing
	Refresh bool

	// review
	Tabs      []docTab
	ActiveDoc *model.Document
	ActiveTab string
	ZoomIn    int
	ZoomOut   int
	Reason    *model.ClaimItem
	Reduction int64
}

var stepLabels = map[workflow.Step]string{
	workflow.StepLanding:    "Start",
	workflow.StepUpload:     "Upload",
	workflow.StepProcessing: "Processing",
	workflow.StepReview:     "Review",
	workflow.StepSuccess:    "Submitted",
}

func stepURL(step workflow.Step, errMsg string) string {
	q := url.Values{"step": {string(step)}}
	if errMsg != "" {
		q.Set("error", errMsg)
	}
	return "/?" + q.Encode()
}

// handlePage renders the current step. A deep link to any other step
// redirects to the step the session is actually on.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	q := r.URL.Query()

	requested, _ := workflow.ParseStep(q.Get("step"))
	step := sess.Resolve(requested)
	if step != requested {
		http.Redirect(w, r, stepURL(step, q.Get("error")), http.StatusFound)
		return
	}
	if step == workflow.StepReview {
		applyViewQuery(sess, q)
	}

	v := sess.Snapshot()
	s.render(w, http.StatusOK, string(v.Step), s.buildPageData(v, q.Get("error")))
}

// applyViewQuery folds review-screen query parameters into the view state
func applyViewQuery(sess *session.Session, q url.Values) {
	sess.UpdateView(func(vs *session.ViewState) {
		if d := q.Get("doc"); d != "" {
			if t, ok := model.ParseDocumentType(d); ok {
				vs.ActiveDocument = t
			}
		}
		if z := q.Get("zoom"); z != "" {
			if n, err := strconv.Atoi(z); err == nil {
				vs.SetZoom(n)
			}
		}
		switch q.Get("drawer") {
		case "open":
			vs.DrawerOpen = true
		case "closed":
			vs.DrawerOpen = false
		}
		if rs := q.Get("reason"); rs != "" {
			if n, err := strconv.Atoi(rs); err == nil && n >= 0 {
				vs.ReasonItem = n
			}
		}
		switch q.Get("dialog") {
		case "submit":
			vs.SubmitDialog = true
		case "none":
			vs.SubmitDialog = false
		}
	})
}

func (s *Server) buildPageData(v session.View, errMsg string) pageData {
	data := pageData{
		Brand: s.brand(),
		Title: stepLabels[v.Step],
		Step:  v.Step,
		View:  v,
		Error: errMsg,
	}
	for _, step := range workflow.Steps {
		data.Steps = append(data.Steps, stepLink{
			Step:    step,
			Label:   stepLabels[step],
			Current: step == v.Step,
			Done:    step.Ordinal() < v.Step.Ordinal(),
		})
	}

	switch v.Step {
	case workflow.StepUpload:
		for _, t := range model.DocumentTypes {
			data.Slots = append(data.Slots, uploadSlot{
				Type:        t,
				Title:       t.Title(),
				Description: t.Description(),
				Required:    t.Required(),
			})
		}
	case workflow.StepProcessing:
		data.Refresh = v.Progress != nil && !v.Progress.Done && v.ProcessingErr == ""
	case workflow.StepReview:
		vs := v.ViewState
		for _, t := range model.DocumentTypes {
			doc, uploaded := model.FindDocument(v.Documents, t)
			tab := docTab{Type: t, Title: t.Title(), Active: t == vs.ActiveDocument, Uploaded: uploaded}
			if tab.Active {
				data.ActiveTab = tab.Title
				if uploaded {
					d := doc
					data.ActiveDoc = &d
				}
			}
			data.Tabs = append(data.Tabs, tab)
		}
		in, out := vs, vs
		in.ZoomIn()
		out.ZoomOut()
		data.ZoomIn, data.ZoomOut = in.Zoom, out.Zoom
		for i := range v.Items {
			if v.Items[i].ID == vs.ReasonItem {
				item := v.Items[i]
				data.Reason = &item
			}
		}
		data.Reduction = v.TotalClaimed - v.TotalApproved
	case workflow.StepSuccess:
		if v.Decision != nil {
			data.Reduction = v.Decision.TotalClaimed - v.Decision.TotalApproved
		}
	}
	return data
}

// afterAction redirects to the current step. Domain refusals travel as a
// message on the redirect; anything else is an error page.
func (s *Server) afterAction(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	var msg string
	if err != nil {
		appErr := classify(err)
		if appErr.StatusCode >= http.StatusInternalServerError {
			s.renderError(w, appErr)
			return
		}
		if !errors.Is(err, workflow.ErrInvalidTransition) {
			msg = appErr.ClientMessage
		}
		s.log.Debug("action refused", zap.String("session", sess.ID), zap.String("path", r.URL.Path), zap.Error(err))
	}
	http.Redirect(w, r, stepURL(sess.Step(), msg), http.StatusSeeOther)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.afterAction(w, r, sess, sess.StartNewClaim())
}

func (s *Server) handleNewClaim(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.afterAction(w, r, sess, sess.StartNewClaim())
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	sess.ReturnHome()
	s.afterAction(w, r, sess, nil)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	docs, err := s.readUpload(w, r)
	if err != nil {
		s.afterAction(w, r, sess, err)
		return
	}
	s.afterAction(w, r, sess, sess.Upload(docs, s.pipeline))
}

// readUpload turns the multipart form into a checked document set. Files
// are not kept: only their names and sizes are.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]model.Document, error) {
	if max := s.cfg.Server.MaxUploadBytes; max > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, max*int64(len(model.DocumentTypes))+1<<20)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("%w: could not read the upload", intake.ErrInvalidDocument)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	var docs []model.Document
	for _, t := range model.DocumentTypes {
		f, hdr, err := r.FormFile(string(t))
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", intake.ErrInvalidDocument, t.Title(), err)
		}
		_ = f.Close()

		doc, err := s.intake.Describe(t, hdr.Filename, hdr.Size)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return s.intake.Check(docs)
}

func (s *Server) handleEnterReview(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.afterAction(w, r, sess, sess.EnterReview())
}

func (s *Server) handleAmount(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id, err := itemID(r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	amount, err := parseAmount(r.FormValue("amount"))
	if err != nil {
		s.renderError(w, err)
		return
	}
	s.afterAction(w, r, sess, sess.SetApprovedAmount(id, amount))
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id, err := itemID(r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	confirmed, err := strconv.ParseBool(r.FormValue("confirmed"))
	if err != nil {
		s.renderError(w, errBadRequest(err, "confirmed must be a boolean"))
		return
	}
	s.afterAction(w, r, sess, sess.SetConfirmed(id, confirmed))
}

func (s *Server) handleConfirmAll(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	s.afterAction(w, r, sess, sess.ConfirmAll())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	decision, err := sess.Submit()
	if err != nil {
		if errors.Is(err, reconcile.ErrNotConfirmed) {
			sess.UpdateView(func(vs *session.ViewState) { vs.SubmitDialog = false })
		}
		s.afterAction(w, r, sess, err)
		return
	}
	s.attachNote(r.Context(), sess, decision)
	s.afterAction(w, r, sess, nil)
}

// attachNote drafts the optional narrative note. Failures only cost the note.
func (s *Server) attachNote(ctx context.Context, sess *session.Session, d *model.FinalDecision) {
	if !s.summarizer.IsEnabled() {
		return
	}
	if timeout := time.Duration(s.cfg.LLM.Timeout) * time.Second; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	note, err := s.summarizer.GenerateNote(ctx, d)
	if err != nil {
		s.log.Warn("narrative note failed", zap.String("reference", d.ReferenceID), zap.Error(err))
		return
	}
	if note == nil || note.Text == "" {
		return
	}
	sess.SetNote(d.ReferenceID, note.Text)
}

func (s *Server) handlePrint(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	doc, err := export.Build(sess.Decision(), s.exportOptions(sess))
	if err != nil {
		s.renderError(w, errNotFound(err, "There is no submitted decision to print"))
		return
	}
	s.execute(w, http.StatusOK, s.pages.print, doc)
}

func (s *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.renderError(w, errNotFound(err, "Unknown export format"))
		return
	}
	doc, err := export.Build(sess.Decision(), s.exportOptions(sess))
	if err != nil {
		s.renderError(w, errNotFound(err, "There is no submitted decision to export"))
		return
	}
	s.writeExport(w, doc, format)
}

func (s *Server) writeExport(w http.ResponseWriter, doc *export.Document, format export.Format) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename(doc.Summary.ReferenceID)))
	if err := export.Write(w, doc, format); err != nil {
		s.log.Error("export failed", zap.String("reference", doc.Summary.ReferenceID), zap.Error(err))
	}
}

func itemID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errBadRequest(err, fmt.Sprintf("item id %q is not a number", raw))
	}
	return id, nil
}

// parseAmount reads a form amount, rounding decimals to whole units.
// Clamping is left to the engine.
func parseAmount(raw string) (int64, error) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errBadRequest(err, fmt.Sprintf("amount %q is not a number", raw))
	}
	return roundAmount(f)
}

func roundAmount(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errBadRequest(errors.New("not a finite number"), "amount is not a finite number")
	}
	f = math.Max(math.Min(f, maxAmount), -maxAmount)
	return int64(math.Round(f)), nil
}

// maxAmount keeps rounded amounts well inside int64
const maxAmount = 1e15
