package browser

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"qte/internal/domain"
)

// BridgeName returns the page-global function a stage reports through for
// the given page slot, e.g. QUNIT_CALLBACK_TEST_DONE_0
func BridgeName(stage domain.Stage, index int) string {
	var b strings.Builder
	for i, r := range string(stage) {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return fmt.Sprintf("QUNIT_CALLBACK_%s_%d", b.String(), index)
}

// BindingName returns the single runtime binding every bridge of a page slot
// forwards to. One binding keeps delivery in page emission order.
func BindingName(index int) string {
	return fmt.Sprintf("QUNIT_CALLBACK_RELAY_%d", index)
}

// envelope is what the bridges hand to the binding
type envelope struct {
	Stage   domain.Stage    `json:"stage"`
	Details json.RawMessage `json:"details"`
}

const hookTemplate = `(() => {
  const binding = %q;
  const bridges = %s;
  const encode = (stage, details) => {
    const envelope = { stage, details };
    try {
      return JSON.stringify(envelope);
    } catch (e) {
      const seen = new WeakSet();
      return JSON.stringify(envelope, (key, value) => {
        if (typeof value === 'object' && value !== null) {
          if (seen.has(value)) {
            return String(value);
          }
          seen.add(value);
        }
        return value;
      });
    }
  };
  for (const [stage, bridge] of Object.entries(bridges)) {
    window[bridge] = (details) => {
      const relay = window[binding];
      if (typeof relay === 'function') {
        relay(encode(stage, details));
      }
    };
  }
  const wire = (qunit) => {
    for (const [stage, bridge] of Object.entries(bridges)) {
      if (typeof qunit[stage] === 'function') {
        qunit[stage]((details) => window[bridge](details));
      }
    }
  };
  let current;
  Object.defineProperty(window, 'QUnit', {
    configurable: true,
    get: () => current,
    set: (value) => {
      current = value;
      if (value && !value.__qteWired) {
        value.__qteWired = true;
        wire(value);
      }
    },
  });
})();`

// HookScript returns the script installed on every new document of a page
// slot. It defines one bridge function per stage, each forwarding
// {stage, details} to the slot's binding, and registers them as lifecycle
// callbacks whenever the page assigns window.QUnit. Circular values in the
// details are replaced by their string form.
func HookScript(index int) string {
	bridges := make(map[string]string, len(domain.Stages()))
	for _, stage := range domain.Stages() {
		bridges[string(stage)] = BridgeName(stage, index)
	}
	// Marshalling a map of strings cannot fail
	data, _ := json.Marshal(bridges)
	return fmt.Sprintf(hookTemplate, BindingName(index), data)
}
