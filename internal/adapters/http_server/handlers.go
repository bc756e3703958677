package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"travelops/internal/app"
	"travelops/internal/domain"
	"travelops/internal/render"
)

// SettingsAdmin is the read-write settings surface. The Redis store
// satisfies it; the domain port stays read-only for the dispatcher.
type SettingsAdmin interface {
	domain.SettingsStore
	SetSelectedSkin(ctx context.Context, skinID string) error
	SetPolicy(ctx context.Context, key, value string) error
}

type Handlers struct {
	Reconciler *app.Reconciler
	Confirm    *app.ConfirmationStateMachine
	Builder    *app.QuotationBuilder
	Dispatcher *app.Dispatcher
	Renderer   *render.Renderer
	Settings   SettingsAdmin
	Printer    domain.PDFPrinter
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1/leads/{id}", func(r chi.Router) {
		r.Get("/proposals", h.listProposals)
		r.Post("/proposals/refresh-prices", h.refreshPrices)
		r.Delete("/proposals", h.removeProposals)
		r.Post("/proposals/{optionId}/confirm", h.confirmProposal)
		r.Get("/quotation", h.getQuotation)
		r.Get("/quotation/email", h.getQuotationEmail)
		r.Get("/quotation/whatsapp", h.getQuotationWhatsApp)
		r.Get("/quotation/pdf", h.getQuotationPDF)
		r.Post("/quotation/send", h.sendQuotation)
		r.Post("/quotation/send-all", h.sendAllQuotation)
	})

	s.mux.Get("/v1/settings/email-skin", h.getEmailSkin)
	s.mux.Put("/v1/settings/email-skin", h.putEmailSkin)
	s.mux.Put("/v1/settings/policies/{key}", h.putPolicy)
}

func leadID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "lead id must be a positive number")
		return 0, false
	}
	return id, true
}

func optionParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("option"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseChannel(s string) (domain.Channel, bool) {
	switch domain.Channel(s) {
	case domain.ChannelEmail, domain.ChannelWhatsApp, domain.ChannelBoth:
		return domain.Channel(s), true
	case "":
		return domain.ChannelBoth, true
	}
	return "", false
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeDomainErr maps domain sentinels onto HTTP statuses.
func writeDomainErr(w http.ResponseWriter, err error) {
	var cm *domain.ContactMissingError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrUnknownOption):
		writeProblem(w, http.StatusNotFound, "Unknown Option", err.Error())
	case errors.Is(err, domain.ErrConfirmedLocked):
		writeProblem(w, http.StatusConflict, "Confirmed Proposal Locked", err.Error())
	case errors.As(err, &cm):
		writeProblem(w, http.StatusUnprocessableEntity, "Contact Missing", cm.Error())
	default:
		writeProblem(w, http.StatusBadGateway, "Upstream Failure", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) listProposals(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	proposals, err := h.Reconciler.Reconcile(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeCached(w, r, map[string]any{"proposals": proposals})
}

func (h *Handlers) refreshPrices(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	proposals, err := h.Reconciler.RefreshPrices(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"proposals": proposals})
}

func (h *Handlers) removeProposals(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	if err := h.Confirm.RemoveAll(r.Context(), id); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) confirmProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	optionID := chi.URLParam(r, "optionId")
	outcome, err := h.Confirm.Confirm(r.Context(), id, optionID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (h *Handlers) getQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	view, err := h.Builder.Build(r.Context(), id, optionParam(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeCached(w, r, view)
}

func (h *Handlers) getQuotationEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	view, err := h.Builder.Build(r.Context(), id, optionParam(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	skin := r.URL.Query().Get("skin")
	if skin == "" {
		if stored, err := h.Settings.SelectedSkin(r.Context()); err == nil && stored != "" {
			skin = stored
		}
	}
	pol, err := h.Settings.Policies(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("policies unavailable, rendering without")
	}
	html, err := h.Renderer.Email(view, nil, skin, pol)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Render Failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (h *Handlers) getQuotationWhatsApp(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	view, err := h.Builder.Build(r.Context(), id, optionParam(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(h.Renderer.WhatsApp(view, nil)))
}

func (h *Handlers) getQuotationPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	view, err := h.Builder.Build(r.Context(), id, optionParam(r))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	pol, err := h.Settings.Policies(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("policies unavailable, rendering without")
	}
	html, err := h.Renderer.PDFHTML(view, nil, pol)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Render Failed", err.Error())
		return
	}
	pdf, err := h.Printer.Print(r.Context(), html)
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "PDF Generation Failed", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="quotation-`+view.Lead.QueryID()+`.pdf"`)
	_, _ = w.Write(pdf)
}

func (h *Handlers) sendQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	var req struct {
		Option  int    `json:"option"`
		Channel string `json:"channel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "expected JSON {option, channel}")
		return
	}
	channel, ok := parseChannel(req.Channel)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid Channel", "channel must be email, whatsapp or both")
		return
	}
	results, err := h.Dispatcher.Send(r.Context(), id, req.Option, channel)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handlers) sendAllQuotation(w http.ResponseWriter, r *http.Request) {
	id, ok := leadID(w, r)
	if !ok {
		return
	}
	var req struct {
		Channel string `json:"channel"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Body", "expected JSON {channel}")
			return
		}
	}
	channel, ok := parseChannel(req.Channel)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid Channel", "channel must be email, whatsapp or both")
		return
	}
	results, err := h.Dispatcher.SendAll(r.Context(), id, channel)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handlers) getEmailSkin(w http.ResponseWriter, r *http.Request) {
	current, err := h.Settings.SelectedSkin(r.Context())
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if current == "" {
		current = render.SkinClassic
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"selected":  current,
		"available": render.SkinIDs(),
	})
}

func (h *Handlers) putEmailSkin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Skin string `json:"skin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "expected JSON {skin}")
		return
	}
	if !render.ValidSkinID(req.Skin) {
		writeProblem(w, http.StatusBadRequest, "Unknown Skin", "skin must be one of the available skin ids")
		return
	}
	if err := h.Settings.SetSelectedSkin(r.Context(), req.Skin); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": req.Skin})
}

func (h *Handlers) putPolicy(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "expected JSON {value}")
		return
	}
	if err := h.Settings.SetPolicy(r.Context(), key, req.Value); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
