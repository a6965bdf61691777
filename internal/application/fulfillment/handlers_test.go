package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/fulfillment"
	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockShipmentReader struct {
	mock.Mock
}

func (m *MockShipmentReader) GetShipment(ctx context.Context, id uuid.UUID) (*fulfillment.Shipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fulfillment.Shipment), args.Error(1)
}

func (m *MockShipmentReader) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]fulfillment.Shipment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]fulfillment.Shipment), args.Error(1)
}

type MockStockReservations struct {
	mock.Mock
}

func (m *MockStockReservations) SyncOrderReservation(ctx context.Context, variantID, locationID, orderID uuid.UUID, target fulfillment.ReservationTarget) error {
	return m.Called(ctx, variantID, locationID, orderID, target).Error(0)
}

func (m *MockStockReservations) ConfirmShipmentForVariant(ctx context.Context, variantID, locationID, shipmentID, orderID uuid.UUID, quantity int) error {
	return m.Called(ctx, variantID, locationID, shipmentID, orderID, quantity).Error(0)
}

type shipmentFixture struct {
	orderID    uuid.UUID
	locationID uuid.UUID
	variantA   uuid.UUID
	variantB   uuid.UUID
	shipment   *fulfillment.Shipment
	others     []fulfillment.Shipment
}

func newShipmentFixture() *shipmentFixture {
	f := &shipmentFixture{
		orderID:    uuid.New(),
		locationID: uuid.New(),
		variantA:   uuid.New(),
		variantB:   uuid.New(),
	}
	f.shipment = f.newShipment(fulfillment.ShipmentStatePending, f.variantA, f.variantA, f.variantB)
	return f
}

func (f *shipmentFixture) newShipment(state fulfillment.ShipmentState, variants ...uuid.UUID) *fulfillment.Shipment {
	s := &fulfillment.Shipment{ID: uuid.New(), OrderID: f.orderID, StockLocationID: f.locationID, State: state}
	for _, v := range variants {
		s.Units = append(s.Units, fulfillment.InventoryUnit{ID: uuid.New(), ShipmentID: s.ID, VariantID: v})
	}
	return s
}

func (f *shipmentFixture) orderShipments() []fulfillment.Shipment {
	return append([]fulfillment.Shipment{*f.shipment}, f.others...)
}

func openUnits(units int) fulfillment.ReservationTarget {
	return fulfillment.ReservationTarget{Open: units}
}

func TestShipmentCreatedHandler_EventTypes(t *testing.T) {
	h := NewShipmentCreatedHandler(new(MockShipmentReader), new(MockStockReservations), zap.NewNop())
	assert.Equal(t, []string{fulfillment.EventTypeShipmentCreated}, h.EventTypes())
}

func TestShipmentCreatedHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("targets open and shipped units of each variant across the order", func(t *testing.T) {
		f := newShipmentFixture()
		shipped := f.newShipment(fulfillment.ShipmentStateShipped, f.variantA, f.variantB)
		f.others = []fulfillment.Shipment{
			*f.newShipment(fulfillment.ShipmentStateReady, f.variantA),
			*shipped,
			*f.newShipment(fulfillment.ShipmentStateCanceled, f.variantA),
		}
		reader := new(MockShipmentReader)
		stock := new(MockStockReservations)
		reader.On("GetShipment", ctx, f.shipment.ID).Return(f.shipment, nil)
		reader.On("ListByOrder", ctx, f.orderID).Return(f.orderShipments(), nil)
		stock.On("SyncOrderReservation", ctx, f.variantA, f.locationID, f.orderID,
			fulfillment.ReservationTarget{Open: 3, Shipped: map[uuid.UUID]int{shipped.ID: 1}}).Return(nil)
		stock.On("SyncOrderReservation", ctx, f.variantB, f.locationID, f.orderID,
			fulfillment.ReservationTarget{Open: 1, Shipped: map[uuid.UUID]int{shipped.ID: 1}}).Return(nil)

		h := NewShipmentCreatedHandler(reader, stock, zap.NewNop())
		err := h.Handle(ctx, fulfillment.NewShipmentCreatedEvent(uuid.New(), f.orderID, f.shipment.ID, time.Now()))

		require.NoError(t, err)
		stock.AssertExpectations(t)
	})

	t.Run("missing shipment is a no-op", func(t *testing.T) {
		reader := new(MockShipmentReader)
		stock := new(MockStockReservations)
		shipmentID := uuid.New()
		reader.On("GetShipment", ctx, shipmentID).Return(nil, shared.NewDomainError(shared.CodeNotFound, "Shipment not found"))

		h := NewShipmentCreatedHandler(reader, stock, zap.NewNop())
		err := h.Handle(ctx, fulfillment.NewShipmentCreatedEvent(uuid.New(), uuid.New(), shipmentID, time.Now()))

		require.NoError(t, err)
		stock.AssertNotCalled(t, "SyncOrderReservation")
	})

	t.Run("missing stock item is skipped", func(t *testing.T) {
		f := newShipmentFixture()
		reader := new(MockShipmentReader)
		stock := new(MockStockReservations)
		reader.On("GetShipment", ctx, f.shipment.ID).Return(f.shipment, nil)
		reader.On("ListByOrder", ctx, f.orderID).Return(f.orderShipments(), nil)
		stock.On("SyncOrderReservation", ctx, f.variantA, f.locationID, f.orderID, openUnits(2)).
			Return(shared.NewDomainError(shared.CodeStockItemNotFound, "Stock item not found"))
		stock.On("SyncOrderReservation", ctx, f.variantB, f.locationID, f.orderID, openUnits(1)).Return(nil)

		h := NewShipmentCreatedHandler(reader, stock, zap.NewNop())
		err := h.Handle(ctx, fulfillment.NewShipmentCreatedEvent(uuid.New(), f.orderID, f.shipment.ID, time.Now()))

		require.NoError(t, err)
		stock.AssertExpectations(t)
	})

	t.Run("continues after a failure and returns the last error", func(t *testing.T) {
		f := newShipmentFixture()
		reader := new(MockShipmentReader)
		stock := new(MockStockReservations)
		reader.On("GetShipment", ctx, f.shipment.ID).Return(f.shipment, nil)
		reader.On("ListByOrder", ctx, f.orderID).Return(f.orderShipments(), nil)
		stock.On("SyncOrderReservation", ctx, f.variantA, f.locationID, f.orderID, openUnits(2)).
			Return(shared.NewDomainError(shared.CodeInsufficientStock, "Insufficient stock"))
		stock.On("SyncOrderReservation", ctx, f.variantB, f.locationID, f.orderID, openUnits(1)).Return(nil)

		h := NewShipmentCreatedHandler(reader, stock, zap.NewNop())
		err := h.Handle(ctx, fulfillment.NewShipmentCreatedEvent(uuid.New(), f.orderID, f.shipment.ID, time.Now()))

		require.Error(t, err)
		assert.Equal(t, shared.CodeInsufficientStock, shared.ErrorCode(err))
		stock.AssertExpectations(t)
	})

	t.Run("storage error loading shipment fails the event", func(t *testing.T) {
		reader := new(MockShipmentReader)
		shipmentID := uuid.New()
		reader.On("GetShipment", ctx, shipmentID).Return(nil, errors.New("connection refused"))

		h := NewShipmentCreatedHandler(reader, new(MockStockReservations), zap.NewNop())
		err := h.Handle(ctx, fulfillment.NewShipmentCreatedEvent(uuid.New(), uuid.New(), shipmentID, time.Now()))

		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("rejects other event types", func(t *testing.T) {
		h := NewShipmentCreatedHandler(new(MockShipmentReader), new(MockStockReservations), zap.NewNop())
		err := h.Handle(ctx, fulfillment.NewShipmentShippedEvent(uuid.New(), uuid.New(), uuid.New(), time.Now()))
		assert.ErrorContains(t, err, "unexpected event type")
	})
}

func TestShipmentItemUpdatedHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("recomputes only the updated variant", func(t *testing.T) {
		f := newShipmentFixture()
		reader := new(MockShipmentReader)
		stock := new(MockStockReservations)
		reader.On("GetShipment", ctx, f.shipment.ID).Return(f.shipment, nil)
		reader.On("ListByOrder", ctx, f.orderID).Return(f.orderShipments(), nil)
		stock.On("SyncOrderReservation", ctx, f.variantB, f.locationID, f.orderID, openUnits(1)).Return(nil)

		h := NewShipmentItemUpdatedHandler(reader, stock, zap.NewNop())
		err := h.Handle(ctx, fulfillment.NewShipmentItemUpdatedEvent(uuid.New(), f.orderID, f.shipment.ID, f.variantB, time.Now()))

		require.NoError(t, err)
		stock.AssertExpectations(t)
		stock.AssertNumberOfCalls(t, "SyncOrderReservation", 1)
	})

	t.Run("variant removed from shipment reserves zero", func(t *testing.T) {
		f := newShipmentFixture()
		removed := uuid.New()
		reader := new(MockShipmentReader)
		stock := new(MockStockReservations)
		reader.On("GetShipment", ctx, f.shipment.ID).Return(f.shipment, nil)
		reader.On("ListByOrder", ctx, f.orderID).Return(f.orderShipments(), nil)
		stock.On("SyncOrderReservation", ctx, removed, f.locationID, f.orderID, openUnits(0)).Return(nil)

		h := NewShipmentItemUpdatedHandler(reader, stock, zap.NewNop())
		err := h.Handle(ctx, fulfillment.NewShipmentItemUpdatedEvent(uuid.New(), f.orderID, f.shipment.ID, removed, time.Now()))

		require.NoError(t, err)
		stock.AssertExpectations(t)
	})
}

func TestShipmentShippedHandler_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms each variant with its unit count", func(t *testing.T) {
		f := newShipmentFixture()
		f.shipment.State = fulfillment.ShipmentStateShipped
		reader := new(MockShipmentReader)
		stock := new(MockStockReservations)
		reader.On("GetShipment", ctx, f.shipment.ID).Return(f.shipment, nil)
		stock.On("ConfirmShipmentForVariant", ctx, f.variantA, f.locationID, f.shipment.ID, f.orderID, 2).Return(nil)
		stock.On("ConfirmShipmentForVariant", ctx, f.variantB, f.locationID, f.shipment.ID, f.orderID, 1).Return(nil)

		h := NewShipmentShippedHandler(reader, stock, zap.NewNop())
		err := h.Handle(ctx, fulfillment.NewShipmentShippedEvent(uuid.New(), f.shipment.ID, f.orderID, time.Now()))

		require.NoError(t, err)
		stock.AssertExpectations(t)
		reader.AssertNotCalled(t, "ListByOrder", mock.Anything, mock.Anything)
	})

	t.Run("falls back to the shipment's order", func(t *testing.T) {
		f := newShipmentFixture()
		reader := new(MockShipmentReader)
		stock := new(MockStockReservations)
		reader.On("GetShipment", ctx, f.shipment.ID).Return(f.shipment, nil)
		stock.On("ConfirmShipmentForVariant", ctx, mock.Anything, f.locationID, f.shipment.ID, f.orderID, mock.Anything).Return(nil)

		h := NewShipmentShippedHandler(reader, stock, zap.NewNop())
		err := h.Handle(ctx, fulfillment.NewShipmentShippedEvent(uuid.New(), f.shipment.ID, uuid.Nil, time.Now()))

		require.NoError(t, err)
		stock.AssertNumberOfCalls(t, "ConfirmShipmentForVariant", 2)
	})

	t.Run("returns the last failure", func(t *testing.T) {
		f := newShipmentFixture()
		reader := new(MockShipmentReader)
		stock := new(MockStockReservations)
		reader.On("GetShipment", ctx, f.shipment.ID).Return(f.shipment, nil)
		stock.On("ConfirmShipmentForVariant", ctx, f.variantA, f.locationID, f.shipment.ID, f.orderID, 2).
			Return(shared.NewDomainError(shared.CodeInsufficientReserved, "only 1 reserved"))
		stock.On("ConfirmShipmentForVariant", ctx, f.variantB, f.locationID, f.shipment.ID, f.orderID, 1).Return(nil)

		h := NewShipmentShippedHandler(reader, stock, zap.NewNop())
		err := h.Handle(ctx, fulfillment.NewShipmentShippedEvent(uuid.New(), f.shipment.ID, f.orderID, time.Now()))

		assert.Equal(t, shared.CodeInsufficientReserved, shared.ErrorCode(err))
		stock.AssertExpectations(t)
	})
}
