package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"confidant/internal/domain"
	"confidant/internal/domain/models"
	"confidant/internal/domain/repositories"
	"confidant/internal/httputil"
)

// ContactHandler handles contact and tag HTTP requests.
type ContactHandler struct {
	contacts repositories.ContactRepository
	logger   *slog.Logger
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(contacts repositories.ContactRepository, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{
		contacts: contacts,
		logger:   logger,
	}
}

type contactRequest struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Profile      string `json:"profile"`
}

func (r *contactRequest) validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Relationship, validation.Length(0, 200)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// CreateContact creates a contact profile.
// POST /api/contacts
func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		handleError(w, err)
		return
	}

	contact := &models.Contact{
		Name:         req.Name,
		Relationship: req.Relationship,
		Profile:      req.Profile,
	}
	if err := h.contacts.CreateContact(r.Context(), contact); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, contact)
}

// ListContacts lists all contacts.
// GET /api/contacts
func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.ListContacts(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contacts)
}

// GetContact retrieves one contact with its tags.
// GET /api/contacts/{id}
func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	contact, err := h.contacts.GetContact(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	tags, err := h.contacts.ListTags(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"contact": contact,
		"tags":    tags,
	})
}

// UpdateContact updates a contact profile.
// PUT /api/contacts/{id}
func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		handleError(w, err)
		return
	}

	contact := &models.Contact{
		ID:           r.PathValue("id"),
		Name:         req.Name,
		Relationship: req.Relationship,
		Profile:      req.Profile,
	}
	if err := h.contacts.UpdateContact(r.Context(), contact); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contact)
}

// DeleteContact removes a contact and everything attached to it.
// DELETE /api/contacts/{id}
func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.DeleteContact(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type tagRequest struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// AddTag attaches a confirmed tag to a contact.
// POST /api/contacts/{id}/tags
func (h *ContactHandler) AddTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := validation.Errors{
		"kind":  validation.Validate(req.Kind, validation.Required, validation.In(models.TagKindRisk, models.TagKindStrategy)),
		"label": validation.Validate(req.Label, validation.Required, validation.Length(1, 500)),
	}.Filter()
	if err != nil {
		handleError(w, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	tag := &models.ContactTag{
		ContactID: r.PathValue("id"),
		Kind:      req.Kind,
		Label:     req.Label,
		Confirmed: true,
	}
	if err := h.contacts.AddTag(r.Context(), tag); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, tag)
}

// ListTags lists a contact's tags.
// GET /api/contacts/{id}/tags
func (h *ContactHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.contacts.ListTags(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tags)
}

// ConfirmTag marks a proposed tag as confirmed.
// POST /api/tags/{id}/confirm
func (h *ContactHandler) ConfirmTag(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.ConfirmTag(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteTag removes a tag.
// DELETE /api/tags/{id}
func (h *ContactHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.contacts.DeleteTag(r.Context(), r.PathValue("id")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
