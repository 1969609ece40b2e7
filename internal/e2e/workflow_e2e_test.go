package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/coldchain/internal/authorization"
	"github.com/smallbiznis/coldchain/internal/clock"
	"github.com/smallbiznis/coldchain/internal/config"
	equipmentdomain "github.com/smallbiznis/coldchain/internal/equipment/domain"
	equipmentrepo "github.com/smallbiznis/coldchain/internal/equipment/repository"
	equipmentservice "github.com/smallbiznis/coldchain/internal/equipment/service"
	faultdomain "github.com/smallbiznis/coldchain/internal/faultreport/domain"
	faultrepo "github.com/smallbiznis/coldchain/internal/faultreport/repository"
	faultservice "github.com/smallbiznis/coldchain/internal/faultreport/service"
	fridgerequestdomain "github.com/smallbiznis/coldchain/internal/fridgerequest/domain"
	fridgerequestrepo "github.com/smallbiznis/coldchain/internal/fridgerequest/repository"
	fridgerequestservice "github.com/smallbiznis/coldchain/internal/fridgerequest/service"
	"github.com/smallbiznis/coldchain/internal/identity"
	identitydomain "github.com/smallbiznis/coldchain/internal/identity/domain"
	inventorydomain "github.com/smallbiznis/coldchain/internal/inventory/domain"
	inventoryrepo "github.com/smallbiznis/coldchain/internal/inventory/repository"
	inventoryservice "github.com/smallbiznis/coldchain/internal/inventory/service"
	ledgerdomain "github.com/smallbiznis/coldchain/internal/ledger/domain"
	ledgerrepo "github.com/smallbiznis/coldchain/internal/ledger/repository"
	ledgerservice "github.com/smallbiznis/coldchain/internal/ledger/service"
	maintenancedomain "github.com/smallbiznis/coldchain/internal/maintenance/domain"
	maintenancerepo "github.com/smallbiznis/coldchain/internal/maintenance/repository"
	maintenanceservice "github.com/smallbiznis/coldchain/internal/maintenance/service"
	notificationdomain "github.com/smallbiznis/coldchain/internal/notification/domain"
	notificationrepo "github.com/smallbiznis/coldchain/internal/notification/repository"
	notificationservice "github.com/smallbiznis/coldchain/internal/notification/service"
	"github.com/smallbiznis/coldchain/internal/reference"
	referencedomain "github.com/smallbiznis/coldchain/internal/reference/domain"
	"github.com/smallbiznis/coldchain/internal/server"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// env wires the full engine against an in-memory store so the tests can
// drive every workflow through the HTTP surface, the way a gateway would.
type env struct {
	engine *gin.Engine
	db     *gorm.DB
	node   *snowflake.Node
	clock  *clock.FakeClock

	admin      identity.Actor
	faultTech  identity.Actor
	maintTech  identity.Actor
	customer   identity.Actor
	customerID snowflake.ID
	supplierID snowflake.ID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&equipmentdomain.Equipment{},
		&faultdomain.FaultReport{},
		&maintenancedomain.MaintenanceRecord{},
		&maintenancedomain.ServiceHistoryEntry{},
		&inventorydomain.PurchaseRequest{},
		&fridgerequestdomain.FridgeRequest{},
		&ledgerdomain.AllocationEntry{},
		&notificationdomain.Notification{},
		&identitydomain.User{},
		&referencedomain.Customer{},
		&referencedomain.Supplier{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	node, _ := snowflake.NewNode(1)
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	cfg := config.Config{
		Environment:          "test",
		RestockThreshold:     5,
		RestockQuantity:      10,
		RestockEstimatedCost: 5000,
	}

	e := &env{db: db, node: node, clock: clk}

	adminUser := identitydomain.User{ID: node.Generate(), Name: "Ada Admin", Role: identity.RoleAdministrator, Active: true}
	faultUser := identitydomain.User{ID: node.Generate(), Name: "Finn Fault", Role: identity.RoleFaultTechnician, Active: true}
	maintUser := identitydomain.User{ID: node.Generate(), Name: "Milo Service", Role: identity.RoleMaintenanceTechnician, Active: true}
	for _, user := range []identitydomain.User{adminUser, faultUser, maintUser} {
		if err := db.Create(&user).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	customer := referencedomain.Customer{ID: node.Generate(), BusinessName: "Polar Foods", Active: true}
	supplier := referencedomain.Supplier{ID: node.Generate(), Name: "ChillTech", Active: true}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}

	e.admin = identity.Actor{ID: adminUser.ID.String(), Role: identity.RoleAdministrator}
	e.faultTech = identity.Actor{ID: faultUser.ID.String(), Role: identity.RoleFaultTechnician}
	e.maintTech = identity.Actor{ID: maintUser.ID.String(), Role: identity.RoleMaintenanceTechnician}
	e.customer = identity.Actor{ID: customer.ID.String(), Role: identity.RoleCustomer}
	e.customerID = customer.ID
	e.supplierID = supplier.ID

	identityRepo := identity.NewRepository()
	referenceRepo := reference.NewRepository()

	notifications := notificationservice.NewService(notificationservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo:     notificationrepo.Provide(),
		Identity: identityRepo,
	})
	ledger := ledgerservice.NewService(ledgerservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo: ledgerrepo.Provide(),
	})
	inventory := inventoryservice.NewService(inventoryservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk, Config: cfg,
		Repo:     inventoryrepo.Provide(),
		Notifier: notifications,
	})
	equipment := equipmentservice.NewService(equipmentservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo:      equipmentrepo.Provide(),
		Reference: referenceRepo,
		Ledger:    ledger,
		Inventory: inventory,
	})
	faults := faultservice.NewService(faultservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo:      faultrepo.Provide(),
		Equipment: equipmentrepo.Provide(),
		Reference: referenceRepo,
		Identity:  identityRepo,
		Notifier:  notifications,
	})
	maintenance := maintenanceservice.NewService(maintenanceservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo:      maintenancerepo.Provide(),
		Equipment: equipmentrepo.Provide(),
		Identity:  identityRepo,
		Notifier:  notifications,
	})
	fridgeRequests := fridgerequestservice.NewService(fridgerequestservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: clk,
		Repo:          fridgerequestrepo.Provide(),
		Equipment:     equipment,
		EquipmentRepo: equipmentrepo.Provide(),
		Reference:     referenceRepo,
		Notifier:      notifications,
	})

	enforcer, err := authorization.NewEnforcer(db)
	if err != nil {
		t.Fatalf("build enforcer: %v", err)
	}
	authz := authorization.NewService(authorization.Params{Log: log, Enforcer: enforcer})

	e.engine = server.New(server.Param{
		Config:         cfg,
		Log:            log,
		Authz:          authz,
		Equipment:      equipment,
		Faults:         faults,
		Maintenance:    maintenance,
		FridgeRequests: fridgeRequests,
		Inventory:      inventory,
		Ledger:         ledger,
		Notifications:  notifications,
	}).Engine()
	return e
}

func (e *env) do(t *testing.T, method, path string, actor *identity.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("X-Actor-Id", actor.ID)
		req.Header.Set("X-Actor-Role", actor.Role)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestFaultRepairLifecycle(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/v1/equipment/batch", &e.admin, map[string]any{
		"supplier_id":   e.supplierID.String(),
		"model":         "CF-400",
		"serial_prefix": "CF400",
		"quantity":      6,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("receive batch: %d %s", w.Code, w.Body.String())
	}
	batch := decode[struct {
		Created []struct {
			ID           string `json:"id"`
			SerialNumber string `json:"serial_number"`
			Status       string `json:"status"`
		} `json:"created"`
	}](t, w)
	if len(batch.Created) != 6 {
		t.Fatalf("created = %d, want 6", len(batch.Created))
	}
	if batch.Created[0].SerialNumber != "CF400-001" {
		t.Errorf("first serial = %s, want CF400-001", batch.Created[0].SerialNumber)
	}
	unitID := batch.Created[0].ID

	w = e.do(t, http.MethodPost, "/v1/equipment/"+unitID+"/allocate", &e.admin, map[string]any{
		"customer_id": e.customerID.String(),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("allocate: %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/v1/fault-reports", &e.customer, map[string]any{
		"equipment_id": unitID,
		"customer_id":  e.customerID.String(),
		"description":  "Cabinet temperature climbing, compressor cycles constantly",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("report fault: %d %s", w.Code, w.Body.String())
	}
	report := decode[struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}](t, w)
	if report.Status != string(faultdomain.StatusReported) {
		t.Errorf("report status = %s, want reported", report.Status)
	}

	w = e.do(t, http.MethodGet, "/v1/equipment/"+unitID, &e.admin, nil)
	unit := decode[struct {
		Status string `json:"status"`
	}](t, w)
	if unit.Status != string(equipmentdomain.StatusFaulty) {
		t.Errorf("equipment status = %s, want faulty", unit.Status)
	}

	steps := []struct {
		path  string
		actor *identity.Actor
		body  any
	}{
		{"/assign", &e.admin, map[string]any{"technician_id": e.faultTech.ID}},
		{"/diagnose", &e.faultTech, map[string]any{"diagnosis": "failed start relay", "estimated_cost": 120}},
		{"/schedule", &e.faultTech, map[string]any{"scheduled_date": e.clock.Now().Add(48 * time.Hour)}},
		{"/start", &e.faultTech, nil},
		{"/complete", &e.faultTech, map[string]any{"repair_notes": "relay replaced"}},
		{"/close", &e.admin, nil},
	}
	for _, step := range steps {
		w = e.do(t, http.MethodPost, "/v1/fault-reports/"+report.ID+step.path, step.actor, step.body)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", step.path, w.Code, w.Body.String())
		}
	}

	// The unit goes back to the customer once the repair lands.
	w = e.do(t, http.MethodGet, "/v1/equipment/"+unitID, &e.admin, nil)
	unit = decode[struct {
		Status string `json:"status"`
	}](t, w)
	if unit.Status != string(equipmentdomain.StatusAllocated) {
		t.Errorf("equipment status after repair = %s, want allocated", unit.Status)
	}

	w = e.do(t, http.MethodGet, "/v1/equipment/"+unitID+"/ledger", &e.admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("ledger: %d %s", w.Code, w.Body.String())
	}
	trail := decode[struct {
		Entries []struct {
			Action string `json:"action"`
		} `json:"entries"`
	}](t, w)
	if len(trail.Entries) != 2 {
		t.Fatalf("ledger entries = %d, want received + allocated", len(trail.Entries))
	}
	if trail.Entries[0].Action != "received" || trail.Entries[1].Action != "allocated" {
		t.Errorf("trail = %+v", trail.Entries)
	}

	w = e.do(t, http.MethodGet, "/v1/notifications", &e.customer, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("notifications: %d %s", w.Code, w.Body.String())
	}
	inbox := decode[struct {
		Notifications []struct {
			TriggerEvent string `json:"trigger_event"`
		} `json:"notifications"`
	}](t, w)
	if len(inbox.Notifications) != 2 {
		t.Fatalf("customer notifications = %d, want ack + repair completed", len(inbox.Notifications))
	}
}

func TestScrapDropsStockAndRaisesRestock(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/v1/equipment/batch", &e.admin, map[string]any{
		"supplier_id":   e.supplierID.String(),
		"model":         "CF-400",
		"serial_prefix": "CF400",
		"quantity":      5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("receive batch: %d %s", w.Code, w.Body.String())
	}
	batch := decode[struct {
		Created []struct {
			ID string `json:"id"`
		} `json:"created"`
	}](t, w)

	w = e.do(t, http.MethodPost, "/v1/equipment/"+batch.Created[0].ID+"/scrap", &e.admin, map[string]any{
		"reason": "compressor housing cracked beyond repair",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("scrap: %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/v1/purchase-requests", &e.admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list requests: %d %s", w.Code, w.Body.String())
	}
	requests := decode[struct {
		Requests []struct {
			Status string `json:"status"`
			Reason string `json:"reason"`
			Auto   bool   `json:"auto"`
		} `json:"requests"`
	}](t, w)
	if len(requests.Requests) != 1 {
		t.Fatalf("purchase requests = %d, want 1", len(requests.Requests))
	}
	got := requests.Requests[0]
	if !got.Auto || got.Status != "pending" || got.Reason != "Low stock: only 4 fridges available" {
		t.Errorf("request = %+v", got)
	}
}

func TestAuthorizationBoundaries(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/v1/equipment/batch", &e.admin, map[string]any{
		"supplier_id":   e.supplierID.String(),
		"model":         "CF-400",
		"serial_prefix": "CF400",
		"quantity":      1,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("receive batch: %d %s", w.Code, w.Body.String())
	}
	batch := decode[struct {
		Created []struct {
			ID string `json:"id"`
		} `json:"created"`
	}](t, w)
	unitID := batch.Created[0].ID

	// Customers cannot scrap units.
	w = e.do(t, http.MethodPost, "/v1/equipment/"+unitID+"/scrap", &e.customer, map[string]any{
		"reason": "customer wants it gone",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("customer scrap = %d, want 403", w.Code)
	}

	// Maintenance technicians do not touch the fault workflow.
	w = e.do(t, http.MethodPost, "/v1/fault-reports", &e.maintTech, map[string]any{
		"customer_id": e.customerID.String(),
		"description": "observed during routine visit, cabinet icing heavily",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("maintenance technician report = %d, want 403", w.Code)
	}

	// No actor headers at all.
	w = e.do(t, http.MethodGet, "/v1/equipment", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous list = %d, want 401", w.Code)
	}

	// Unrecognized role is rejected before routing.
	bogus := identity.Actor{ID: "1", Role: "janitor"}
	w = e.do(t, http.MethodGet, "/v1/equipment", &bogus, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bogus role = %d, want 400", w.Code)
	}

	// Health stays open.
	w = e.do(t, http.MethodGet, "/healthz", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", w.Code)
	}
}

func TestMaintenanceLifecycleOverHTTP(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/v1/equipment/batch", &e.admin, map[string]any{
		"supplier_id":   e.supplierID.String(),
		"model":         "CF-400",
		"serial_prefix": "CF400",
		"quantity":      6,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("receive batch: %d %s", w.Code, w.Body.String())
	}
	batch := decode[struct {
		Created []struct {
			ID string `json:"id"`
		} `json:"created"`
	}](t, w)
	unitID := batch.Created[0].ID

	w = e.do(t, http.MethodPost, "/v1/maintenance", &e.maintTech, map[string]any{
		"equipment_id":   unitID,
		"technician_id":  e.maintTech.ID,
		"scheduled_date": e.clock.Now().Add(24 * time.Hour),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("schedule: %d %s", w.Code, w.Body.String())
	}
	record := decode[struct {
		ID string `json:"id"`
	}](t, w)

	for _, step := range []struct {
		path string
		body any
	}{
		{"/start", nil},
		{"/complete", map[string]any{"notes": "filters swapped", "total_cost": 90}},
	} {
		w = e.do(t, http.MethodPost, "/v1/maintenance/"+record.ID+step.path, &e.maintTech, step.body)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: %d %s", step.path, w.Code, w.Body.String())
		}
	}

	w = e.do(t, http.MethodGet, "/v1/equipment/"+unitID+"/service-history", &e.maintTech, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("history: %d %s", w.Code, w.Body.String())
	}
	history := decode[struct {
		Entries []struct {
			ServiceType string `json:"service_type"`
		} `json:"entries"`
	}](t, w)
	if len(history.Entries) != 1 || history.Entries[0].ServiceType != "maintenance" {
		t.Errorf("history = %+v, want one maintenance entry", history.Entries)
	}
}

func TestFridgeRequestLifecycle(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/v1/equipment/batch", &e.admin, map[string]any{
		"supplier_id":   e.supplierID.String(),
		"model":         "CF-400",
		"serial_prefix": "CF400",
		"quantity":      6,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("receive batch: %d %s", w.Code, w.Body.String())
	}
	batch := decode[struct {
		Created []struct {
			ID string `json:"id"`
		} `json:"created"`
	}](t, w)

	w = e.do(t, http.MethodPost, "/v1/fridge-requests", &e.customer, map[string]any{
		"customer_id":   e.customerID.String(),
		"quantity":      2,
		"justification": "opening a second display aisle next month",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit request: %d %s", w.Code, w.Body.String())
	}
	request := decode[struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}](t, w)
	if request.Status != string(fridgerequestdomain.StatusPending) {
		t.Errorf("request status = %s, want pending", request.Status)
	}

	// A second request while the first is still pending is refused.
	w = e.do(t, http.MethodPost, "/v1/fridge-requests", &e.customer, map[string]any{
		"customer_id":   e.customerID.String(),
		"quantity":      1,
		"justification": "forgot to include the deli counter",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate submit = %d, want 409", w.Code)
	}

	// Customers cannot move their own request through review.
	w = e.do(t, http.MethodPost, "/v1/fridge-requests/"+request.ID+"/approve", &e.customer, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("customer approve = %d, want 403", w.Code)
	}

	w = e.do(t, http.MethodPost, "/v1/fridge-requests/"+request.ID+"/review", &e.admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("review: %d %s", w.Code, w.Body.String())
	}
	w = e.do(t, http.MethodPost, "/v1/fridge-requests/"+request.ID+"/approve", &e.admin, map[string]any{
		"approved_quantity": 2,
		"notes":             "stock on hand covers it",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("approve: %d %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/v1/fridge-requests/"+request.ID+"/allocate", &e.admin, map[string]any{
		"equipment_ids": []string{batch.Created[0].ID, batch.Created[1].ID},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("allocate: %d %s", w.Code, w.Body.String())
	}
	allocated := decode[struct {
		Status string `json:"status"`
	}](t, w)
	if allocated.Status != string(fridgerequestdomain.StatusAllocated) {
		t.Errorf("request status = %s, want allocated", allocated.Status)
	}

	w = e.do(t, http.MethodGet, "/v1/equipment/"+batch.Created[0].ID, &e.admin, nil)
	unit := decode[struct {
		Status     string `json:"status"`
		CustomerID string `json:"customer_id"`
	}](t, w)
	if unit.Status != string(equipmentdomain.StatusAllocated) || unit.CustomerID != e.customerID.String() {
		t.Errorf("unit = %+v, want allocated to %s", unit, e.customerID)
	}

	w = e.do(t, http.MethodPost, "/v1/fridge-requests/"+request.ID+"/complete", &e.admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("complete: %d %s", w.Code, w.Body.String())
	}
	completed := decode[struct {
		Status string `json:"status"`
	}](t, w)
	if completed.Status != string(fridgerequestdomain.StatusCompleted) {
		t.Errorf("request status = %s, want completed", completed.Status)
	}
}
