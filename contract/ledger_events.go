package contract

import (
	"encoding/json"
	"fmt"

	"certregistry/model"

	"github.com/hyperledger/fabric-chaincode-go/shim"
)

// registryEventName is the single chaincode event emitted per transaction.
const registryEventName = "RegistryEvents"

// ledgerEvent is one registry event inside the RegistryEvents payload.
type ledgerEvent struct {
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload"`
}

// ledgerPublisher buffers registry events for the current transaction. Fabric keeps only the
// last SetEvent of a transaction, so the buffer is flushed once as a JSON array.
type ledgerPublisher struct {
	stub   shim.ChaincodeStubInterface
	events []ledgerEvent
}

func newLedgerPublisher(stub shim.ChaincodeStubInterface) *ledgerPublisher {
	return &ledgerPublisher{stub: stub}
}

func (p *ledgerPublisher) Publish(event model.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Warningf("ledgerPublisher: failed to marshal event '%s': %v", event.EventName(), err)
		return
	}
	p.events = append(p.events, ledgerEvent{Name: event.EventName(), Payload: payload})
}

// flush emits the buffered events. Nothing is emitted when the buffer is empty.
func (p *ledgerPublisher) flush() error {
	if len(p.events) == 0 {
		return nil
	}
	eventBytes, err := json.Marshal(p.events)
	if err != nil {
		return fmt.Errorf("failed to marshal %d registry events: %w", len(p.events), err)
	}
	if err := p.stub.SetEvent(registryEventName, eventBytes); err != nil {
		return fmt.Errorf("failed to set event '%s': %w", registryEventName, err)
	}
	p.events = nil
	return nil
}
