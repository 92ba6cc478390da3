package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vaultkeeper/credvault/internal/api/metrics"
	"github.com/vaultkeeper/credvault/internal/core/ports"
)

// CredentialHandler handles HTTP requests for the caller's stored credentials.
type CredentialHandler struct {
	service ports.VaultService
}

func NewCredentialHandler(service ports.VaultService) *CredentialHandler {
	return &CredentialHandler{service: service}
}

// List handles GET /api/credentials.
//
// @Summary      List credentials
// @Description  Newest first. Passwords stay sealed unless reveal=true.
// @Tags         credentials
// @Produce      json
// @Security     BearerAuth
// @Param        reveal  query     bool  false  "Return plaintext passwords"
// @Success      200     {array}   credentialResponse
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      500     {object}  errorResponse
// @Router       /api/credentials [get]
func (h *CredentialHandler) List(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	reveal, _ := strconv.ParseBool(c.QueryParam("reveal"))

	list, err := h.service.ListSecrets(c.Request().Context(), identity)
	metrics.CredentialOpsTotal.WithLabelValues("list", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	out := make([]credentialResponse, 0, len(list))
	for _, rec := range list {
		password := rec.SecretCiphertext
		if reveal {
			if password, err = h.service.RevealSecret(rec); err != nil {
				metrics.CredentialOpsTotal.WithLabelValues("reveal", metrics.Result(err)).Inc()
				return err
			}
		}
		out = append(out, toCredentialResponse(rec, password))
	}
	if reveal {
		metrics.CredentialOpsTotal.WithLabelValues("reveal", "ok").Add(float64(len(list)))
	}

	return c.JSON(http.StatusOK, out)
}

// Create handles POST /api/credentials.
//
// @Summary      Store a credential
// @Tags         credentials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                   false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createCredentialRequest  true   "Credential"
// @Success      201              {object}  credentialResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /api/credentials [post]
func (h *CredentialHandler) Create(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createCredentialRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.CredentialOpsTotal.WithLabelValues("create", metrics.Result(err)).Inc()
		return err
	}

	idempotencyKey := c.Request().Header.Get("Idempotency-Key")
	created, err := h.service.AddSecret(c.Request().Context(), identity, toCredentialInput(req, idempotencyKey))
	metrics.CredentialOpsTotal.WithLabelValues("create", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toCredentialResponse(created, created.SecretCiphertext))
}

// Secret handles GET /api/credentials/:id/secret.
//
// @Summary      Reveal one password
// @Tags         credentials
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Credential id"
// @Success      200  {object}  secretResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/credentials/{id}/secret [get]
func (h *CredentialHandler) Secret(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	password, err := h.service.RevealByID(c.Request().Context(), identity, id)
	metrics.CredentialOpsTotal.WithLabelValues("reveal", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, secretResponse{ID: id, Password: password})
}

// Update handles PUT /api/credentials/:id.
//
// @Summary      Update a credential
// @Description  Partial update. A new password is sealed under a fresh IV.
// @Tags         credentials
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "Credential id"
// @Param        body  body      updateCredentialRequest  true  "Fields to change"
// @Success      200   {object}  credentialResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/credentials/{id} [put]
func (h *CredentialHandler) Update(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateCredentialRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.CredentialOpsTotal.WithLabelValues("update", metrics.Result(err)).Inc()
		return err
	}

	updated, err := h.service.UpdateSecret(c.Request().Context(), identity, c.Param("id"), toCredentialUpdate(req))
	metrics.CredentialOpsTotal.WithLabelValues("update", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toCredentialResponse(updated, updated.SecretCiphertext))
}

// Delete handles DELETE /api/credentials/:id.
//
// @Summary      Delete a credential
// @Tags         credentials
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Credential id"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/credentials/{id} [delete]
func (h *CredentialHandler) Delete(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	err = h.service.DeleteSecret(c.Request().Context(), identity, c.Param("id"))
	metrics.CredentialOpsTotal.WithLabelValues("delete", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Credential deleted successfully"})
}
