package triggers

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ledgerd/automations/internal/types"
)

func TestRegistry_BuiltinsPresent(t *testing.T) {
	r := NewRegistry()

	for _, triggerType := range []string{
		"transaction.created",
		"transaction.updated",
		"transaction.deleted",
		"scheduled.daily",
		"webhook.incoming",
	} {
		if !r.IsValidTrigger(triggerType) {
			t.Errorf("IsValidTrigger(%q) = false, want true", triggerType)
		}
	}

	if r.IsValidTrigger("nonexistent") {
		t.Errorf("IsValidTrigger(nonexistent) = true, want false")
	}
}

func TestRegistry_RegisterCustom(t *testing.T) {
	r := NewRegistry()

	def := types.TriggerDefinition{
		Type:     "webhook.custom",
		Label:    "Custom webhook",
		Category: types.CategoryWebhook,
	}
	if err := r.Register(def); err != nil {
		t.Fatalf("Register() error = %v, want nil", err)
	}

	got, ok := r.Get("webhook.custom")
	if !ok {
		t.Fatalf("Get(webhook.custom) ok = false, want true")
	}
	if got.Label != "Custom webhook" {
		t.Errorf("Label = %q, want %q", got.Label, "Custom webhook")
	}
}

func TestRegistry_RegisterEmptyType(t *testing.T) {
	r := NewRegistry()
	err := r.Register(types.TriggerDefinition{Label: "no type"})
	if !errors.Is(err, types.ErrUnknownTrigger) {
		t.Errorf("Register() error = %v, want ErrUnknownTrigger", err)
	}
}

// Registering the same type twice leaves a single entry with the last
// definition.
func TestRegistry_RegisterLastWriteWins(t *testing.T) {
	r := NewRegistry()

	r.Register(types.TriggerDefinition{Type: "webhook.custom", Label: "first"})
	r.Register(types.TriggerDefinition{Type: "webhook.custom", Label: "second"})

	got, _ := r.Get("webhook.custom")
	if got.Label != "second" {
		t.Errorf("Label = %q, want %q", got.Label, "second")
	}

	count := 0
	for _, def := range r.GetAll() {
		if def.Type == "webhook.custom" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("GetAll() lists webhook.custom %d times, want 1", count)
	}
}

// A custom registration shadows the built-in of the same type; unregistering
// restores the built-in.
func TestRegistry_ShadowAndRestore(t *testing.T) {
	r := NewRegistry()

	builtin, ok := r.Get("transaction.created")
	if !ok {
		t.Fatalf("built-in transaction.created missing")
	}

	r.Register(types.TriggerDefinition{Type: "transaction.created", Label: "shadowed"})
	got, _ := r.Get("transaction.created")
	if got.Label != "shadowed" {
		t.Errorf("Label = %q, want %q", got.Label, "shadowed")
	}

	r.Unregister("transaction.created")
	got, ok = r.Get("transaction.created")
	if !ok {
		t.Fatalf("built-in did not reappear after Unregister")
	}
	if got.Label != builtin.Label {
		t.Errorf("Label = %q, want built-in %q", got.Label, builtin.Label)
	}
}

// Unregistering a built-in type with no custom shadow is a no-op.
func TestRegistry_UnregisterBuiltinNoop(t *testing.T) {
	r := NewRegistry()
	r.Unregister("scheduled.daily")
	if !r.IsValidTrigger("scheduled.daily") {
		t.Errorf("built-in removed by Unregister, want it preserved")
	}
}

func TestRegistry_GetAllSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(types.TriggerDefinition{Type: "aaa.first", Label: "First"})

	all := r.GetAll()
	for i := 1; i < len(all); i++ {
		if all[i-1].Type >= all[i].Type {
			t.Fatalf("GetAll() not sorted: %q before %q", all[i-1].Type, all[i].Type)
		}
	}
}

func TestRegistry_GetByCategory(t *testing.T) {
	r := NewRegistry()

	for _, def := range r.GetByCategory(types.CategoryTransaction) {
		if def.Category != types.CategoryTransaction {
			t.Errorf("GetByCategory returned %q with category %q", def.Type, def.Category)
		}
	}
	if len(r.GetByCategory(types.CategoryTransaction)) == 0 {
		t.Errorf("GetByCategory(transaction) is empty")
	}
}

func TestRegistry_GetLabelFallback(t *testing.T) {
	r := NewRegistry()
	if got := r.GetLabel("nonexistent.trigger"); got != "nonexistent.trigger" {
		t.Errorf("GetLabel(unknown) = %q, want the raw type", got)
	}
}

func TestRegistry_GetFields(t *testing.T) {
	r := NewRegistry()

	fields := r.GetFields("transaction.created")
	if len(fields) == 0 {
		t.Fatalf("GetFields(transaction.created) is empty")
	}

	unknown := r.GetFields("nonexistent")
	if unknown == nil || len(unknown) != 0 {
		t.Errorf("GetFields(unknown) = %v, want empty slice", unknown)
	}

	// Mutating the returned slice must not leak into the registry.
	fields[0].Field = "mutated"
	again := r.GetFields("transaction.created")
	if again[0].Field == "mutated" {
		t.Errorf("mutating returned fields leaked into the registry")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			r.Register(types.TriggerDefinition{
				Type:  fmt.Sprintf("custom.%d", n),
				Label: "concurrent",
			})
		}(i)
		go func() {
			defer wg.Done()
			_ = r.GetAll()
			_ = r.IsValidTrigger("transaction.created")
		}()
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		if !r.IsValidTrigger(fmt.Sprintf("custom.%d", i)) {
			t.Errorf("custom.%d missing after concurrent registration", i)
		}
	}
}
