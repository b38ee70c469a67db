package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	appaccounting "github.com/barbertime/backend/internal/application/accounting"
	"github.com/barbertime/backend/internal/domain/accounting"
)

const (
	defaultSyncLogLimit = 20
	maxSyncLogLimit     = 100
)

// AccountingHandler handles accounting integration HTTP requests
type AccountingHandler struct {
	BaseHandler
	settingsService appaccounting.SettingsService
	syncService     appaccounting.SyncService
}

// NewAccountingHandler creates a new AccountingHandler
func NewAccountingHandler(settingsService appaccounting.SettingsService, syncService appaccounting.SyncService) *AccountingHandler {
	return &AccountingHandler{
		settingsService: settingsService,
		syncService:     syncService,
	}
}

// RegisterRoutes registers accounting routes
func (h *AccountingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	acc := rg.Group("/accounting/:provider")
	{
		acc.GET("/settings", h.GetSettings)
		acc.PUT("/settings", h.UpdateSettings)
		acc.POST("/test-connection", h.TestConnection)
		acc.GET("/sync-log", h.GetSyncLog)
		acc.GET("/unsynced-counts", h.GetUnsyncedCounts)

		sync := acc.Group("/sync")
		{
			sync.POST("/customers", h.SyncCustomers)
			sync.POST("/orders", h.SyncOrders)
			sync.POST("/payments", h.SyncPayments)
			sync.POST("/all", h.SyncAll)
		}
	}
}

// getProvider extracts and validates the provider path parameter
func getProvider(c *gin.Context) (accounting.ProviderCode, bool) {
	provider := accounting.ProviderCode(c.Param("provider"))
	return provider, provider.IsValid()
}

// GetSettings godoc
//
//	@Summary		Get provider settings
//	@Description	Returns the tenant's integration settings for an accounting provider. Secrets are reduced to presence flags.
//	@Tags			accounting
//	@ID				getAccountingSettings
//	@Produce		json
//	@Param			provider	path		string	true	"Provider code (fiken, tripletex, unimicro, dnb)"
//	@Success		200			{object}	APIResponse[AccountingSettingsResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/accounting/{provider}/settings [get]
func (h *AccountingHandler) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	provider, ok := getProvider(c)
	if !ok {
		h.BadRequest(c, "Unknown provider: "+c.Param("provider"))
		return
	}

	view, err := h.settingsService.GetSettings(ctx, tenantID, provider)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewAccountingSettingsResponse(view))
}

// UpdateSettings godoc
//
//	@Summary		Update provider settings
//	@Description	Updates the tenant's integration settings. Secret fields left empty keep their stored values.
//	@Tags			accounting
//	@ID				updateAccountingSettings
//	@Accept			json
//	@Produce		json
//	@Param			provider	path		string							true	"Provider code"
//	@Param			request		body		UpdateAccountingSettingsRequest	true	"Settings"
//	@Success		200			{object}	APIResponse[AccountingSettingsResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		401			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/accounting/{provider}/settings [put]
func (h *AccountingHandler) UpdateSettings(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	provider, ok := getProvider(c)
	if !ok {
		h.BadRequest(c, "Unknown provider: "+c.Param("provider"))
		return
	}

	var req UpdateAccountingSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.settingsService.UpdateSettings(ctx, tenantID, provider, &appaccounting.SettingsInput{
		Enabled:         req.Enabled,
		AutoSyncEnabled: req.AutoSyncEnabled,
		ClientID:        req.ClientID,
		ClientSecret:    req.ClientSecret,
		ConsumerToken:   req.ConsumerToken,
		EmployeeToken:   req.EmployeeToken,
		CompanyID:       req.CompanyID,
		CompanySlug:     req.CompanySlug,
		PaymentAccount:  req.PaymentAccount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewAccountingSettingsResponse(view))
}

// TestConnection godoc
//
//	@Summary		Test provider connection
//	@Description	Probes the provider API with the stored credentials. A failed probe is a 200 with success=false.
//	@Tags			accounting
//	@ID				testAccountingConnection
//	@Produce		json
//	@Param			provider	path		string	true	"Provider code"
//	@Success		200			{object}	APIResponse[ConnectionStatusResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/accounting/{provider}/test-connection [post]
func (h *AccountingHandler) TestConnection(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	provider, ok := getProvider(c)
	if !ok {
		h.BadRequest(c, "Unknown provider: "+c.Param("provider"))
		return
	}

	status, err := h.settingsService.TestConnection(ctx, tenantID, provider)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ConnectionStatusResponse{
		Success:     status.Success,
		CompanyName: status.CompanyName,
		Error:       status.Error,
	})
}

// SyncCustomers godoc
//
//	@Summary		Sync customers
//	@Description	Pushes customers to the provider as contacts. Without ids, syncs every customer that is not synced yet.
//	@Tags			accounting
//	@ID				syncAccountingCustomers
//	@Accept			json
//	@Produce		json
//	@Param			provider	path		string			true	"Provider code"
//	@Param			request		body		BulkSyncRequest	false	"Optional customer IDs"
//	@Success		200			{object}	APIResponse[BulkSyncResultResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/accounting/{provider}/sync/customers [post]
func (h *AccountingHandler) SyncCustomers(c *gin.Context) {
	h.bulkSync(c, accounting.EntityTypeCustomer)
}

// SyncOrders godoc
//
//	@Summary		Sync orders
//	@Description	Pushes completed orders to the provider as invoices. Without ids, syncs every completed order that is not synced yet.
//	@Tags			accounting
//	@ID				syncAccountingOrders
//	@Accept			json
//	@Produce		json
//	@Param			provider	path		string			true	"Provider code"
//	@Param			request		body		BulkSyncRequest	false	"Optional order IDs"
//	@Success		200			{object}	APIResponse[BulkSyncResultResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/accounting/{provider}/sync/orders [post]
func (h *AccountingHandler) SyncOrders(c *gin.Context) {
	h.bulkSync(c, accounting.EntityTypeInvoice)
}

// SyncPayments godoc
//
//	@Summary		Sync payments
//	@Description	Registers order payments against their remote invoices. Without ids, syncs every paid order that is not synced yet.
//	@Tags			accounting
//	@ID				syncAccountingPayments
//	@Accept			json
//	@Produce		json
//	@Param			provider	path		string			true	"Provider code"
//	@Param			request		body		BulkSyncRequest	false	"Optional order IDs"
//	@Success		200			{object}	APIResponse[BulkSyncResultResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/accounting/{provider}/sync/payments [post]
func (h *AccountingHandler) SyncPayments(c *gin.Context) {
	h.bulkSync(c, accounting.EntityTypePayment)
}

// bulkSync runs one entity type. Per-item failures land in the result body;
// only run-level failures (disabled provider, expired auth) become errors.
func (h *AccountingHandler) bulkSync(c *gin.Context, entityType accounting.EntityType) {
	ctx := c.Request.Context()

	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	provider, ok := getProvider(c)
	if !ok {
		h.BadRequest(c, "Unknown provider: "+c.Param("provider"))
		return
	}

	var req BulkSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}
	ids, err := req.parsedIDs()
	if err != nil {
		h.BadRequest(c, "Invalid entity ID: "+err.Error())
		return
	}

	result, err := h.syncService.BulkSync(ctx, tenantID, provider, entityType, ids, accounting.TriggerManual)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewBulkSyncResultResponse(result))
}

// SyncAll godoc
//
//	@Summary		Sync everything
//	@Description	Runs customers, then orders, then payments in dependency order.
//	@Tags			accounting
//	@ID				syncAccountingAll
//	@Produce		json
//	@Param			provider	path		string	true	"Provider code"
//	@Success		200			{object}	APIResponse[SyncAllResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/accounting/{provider}/sync/all [post]
func (h *AccountingHandler) SyncAll(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	provider, ok := getProvider(c)
	if !ok {
		h.BadRequest(c, "Unknown provider: "+c.Param("provider"))
		return
	}

	results, err := h.syncService.SyncAll(ctx, tenantID, provider, accounting.TriggerManual)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewSyncAllResponse(results))
}

// GetSyncLog godoc
//
//	@Summary		Get sync history
//	@Description	Returns the most recent sync log entries for a provider, newest first.
//	@Tags			accounting
//	@ID				getAccountingSyncLog
//	@Produce		json
//	@Param			provider	path		string	true	"Provider code"
//	@Param			limit		query		int		false	"Max entries (default: 20, max: 100)"
//	@Success		200			{object}	APIResponse[[]SyncLogEntryResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/accounting/{provider}/sync-log [get]
func (h *AccountingHandler) GetSyncLog(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	provider, ok := getProvider(c)
	if !ok {
		h.BadRequest(c, "Unknown provider: "+c.Param("provider"))
		return
	}

	limit := defaultSyncLogLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "Invalid limit parameter")
			return
		}
		limit = parsed
	}
	if limit > maxSyncLogLimit {
		limit = maxSyncLogLimit
	}

	entries, err := h.settingsService.SyncHistory(ctx, tenantID, provider, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewSyncLogResponse(entries))
}

// GetUnsyncedCounts godoc
//
//	@Summary		Get unsynced counts
//	@Description	Returns how many customers, orders and payments still lack a synced mapping. Served from cache when fresh.
//	@Tags			accounting
//	@ID				getAccountingUnsyncedCounts
//	@Produce		json
//	@Param			provider	path		string	true	"Provider code"
//	@Success		200			{object}	APIResponse[UnsyncedCountsResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/accounting/{provider}/unsynced-counts [get]
func (h *AccountingHandler) GetUnsyncedCounts(c *gin.Context) {
	ctx := c.Request.Context()

	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	provider, ok := getProvider(c)
	if !ok {
		h.BadRequest(c, "Unknown provider: "+c.Param("provider"))
		return
	}

	counts, err := h.settingsService.UnsyncedCounts(ctx, tenantID, provider)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NewUnsyncedCountsResponse(counts))
}
