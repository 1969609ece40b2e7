package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/coldchain/internal/authorization"
	equipmentdomain "github.com/smallbiznis/coldchain/internal/equipment/domain"
	faultdomain "github.com/smallbiznis/coldchain/internal/faultreport/domain"
	fridgerequestdomain "github.com/smallbiznis/coldchain/internal/fridgerequest/domain"
	inventorydomain "github.com/smallbiznis/coldchain/internal/inventory/domain"
	ledgerdomain "github.com/smallbiznis/coldchain/internal/ledger/domain"
	maintenancedomain "github.com/smallbiznis/coldchain/internal/maintenance/domain"
	notificationdomain "github.com/smallbiznis/coldchain/internal/notification/domain"
	"github.com/smallbiznis/coldchain/pkg/db"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// mapError translates domain sentinels into HTTP status codes.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, equipmentdomain.ErrNotFound),
		errors.Is(err, faultdomain.ErrNotFound),
		errors.Is(err, maintenancedomain.ErrNotFound),
		errors.Is(err, inventorydomain.ErrNotFound),
		errors.Is(err, fridgerequestdomain.ErrNotFound),
		errors.Is(err, notificationdomain.ErrNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, faultdomain.ErrDuplicateActiveReport),
		errors.Is(err, maintenancedomain.ErrTechnicianBooked),
		errors.Is(err, fridgerequestdomain.ErrDuplicatePending),
		errors.Is(err, equipmentdomain.ErrSerialExists):
		return http.StatusConflict, err.Error()

	case errors.Is(err, equipmentdomain.ErrInvalidTransition),
		errors.Is(err, faultdomain.ErrInvalidTransition),
		errors.Is(err, maintenancedomain.ErrInvalidTransition),
		errors.Is(err, inventorydomain.ErrInvalidTransition),
		errors.Is(err, fridgerequestdomain.ErrInvalidTransition),
		errors.Is(err, maintenancedomain.ErrEquipmentScrapped):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, equipmentdomain.ErrCustomerNotFound),
		errors.Is(err, equipmentdomain.ErrSupplierNotFound),
		errors.Is(err, faultdomain.ErrCustomerNotFound),
		errors.Is(err, faultdomain.ErrEquipmentNotFound),
		errors.Is(err, faultdomain.ErrTechnicianNotFound),
		errors.Is(err, maintenancedomain.ErrEquipmentNotFound),
		errors.Is(err, maintenancedomain.ErrTechnicianNotFound),
		errors.Is(err, fridgerequestdomain.ErrCustomerNotFound):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, equipmentdomain.ErrReasonTooShort),
		errors.Is(err, equipmentdomain.ErrInvalidQuantity),
		errors.Is(err, faultdomain.ErrDescriptionLength),
		errors.Is(err, faultdomain.ErrPastScheduledDate),
		errors.Is(err, maintenancedomain.ErrReasonTooShort),
		errors.Is(err, maintenancedomain.ErrPastScheduledDate),
		errors.Is(err, maintenancedomain.ErrInvalidDateRange),
		errors.Is(err, fridgerequestdomain.ErrInvalidQuantity),
		errors.Is(err, fridgerequestdomain.ErrJustificationLength),
		errors.Is(err, fridgerequestdomain.ErrNoUnitsSelected),
		errors.Is(err, fridgerequestdomain.ErrQuantityExceedsApproved),
		errors.Is(err, fridgerequestdomain.ErrNotEnoughStock):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, equipmentdomain.ErrInvalidID),
		errors.Is(err, faultdomain.ErrInvalidID),
		errors.Is(err, maintenancedomain.ErrInvalidID),
		errors.Is(err, inventorydomain.ErrInvalidID),
		errors.Is(err, fridgerequestdomain.ErrInvalidID),
		errors.Is(err, notificationdomain.ErrInvalidID),
		errors.Is(err, notificationdomain.ErrInvalidRecipient),
		errors.Is(err, equipmentdomain.ErrInvalidStatus),
		errors.Is(err, faultdomain.ErrInvalidStatus),
		errors.Is(err, maintenancedomain.ErrInvalidStatus),
		errors.Is(err, inventorydomain.ErrInvalidStatus),
		errors.Is(err, fridgerequestdomain.ErrInvalidStatus),
		errors.Is(err, equipmentdomain.ErrInvalidPageToken),
		errors.Is(err, faultdomain.ErrInvalidPageToken),
		errors.Is(err, maintenancedomain.ErrInvalidPageToken),
		errors.Is(err, inventorydomain.ErrInvalidPageToken),
		errors.Is(err, fridgerequestdomain.ErrInvalidPageToken),
		errors.Is(err, notificationdomain.ErrInvalidPageToken),
		errors.Is(err, ledgerdomain.ErrInvalidPageToken),
		errors.Is(err, ledgerdomain.ErrInvalidEquipment),
		errors.Is(err, ledgerdomain.ErrInvalidCustomer),
		errors.Is(err, ledgerdomain.ErrInvalidAction):
		return http.StatusBadRequest, err.Error()
	}

	if db.IsUnavailable(err) {
		return http.StatusServiceUnavailable, "store_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

func (s *Server) abortWithError(c *gin.Context, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		message = ""
	}
	c.AbortWithStatusJSON(status, errorResponse{
		Error: errorBody{Code: code, Message: message},
	})
}

func (s *Server) abortBadRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
		Error: errorBody{Code: "invalid_request", Message: err.Error()},
	})
}
