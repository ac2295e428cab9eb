package browser

import (
	"encoding/json"
	"fmt"

	"github.com/glabrego/deploytidy/internal/curate"
	"github.com/glabrego/deploytidy/internal/dom"
)

const (
	bindingMutations = "deploytidyMutations"
	bindingReady     = "deploytidyReady"
	bindingNavigate  = "deploytidyNavigate"

	// mutationIDAttr gives observed elements a stable handle across the
	// page/Go boundary.
	mutationIDAttr = "data-deploytidy-mut"
)

const initScriptTemplate = `(() => {
  if (window.__deploytidy) return;
  window.__deploytidy = true;
  const css = %s;
  let next = 0;
  const tag = (el) => {
    let id = el.getAttribute(%q);
    if (!id) {
      id = String(++next);
      el.setAttribute(%q, id);
    }
    return id;
  };
  const inject = () => {
    if (document.querySelector("style[data-deploytidy-style]")) return;
    const style = document.createElement("style");
    style.setAttribute("data-deploytidy-style", "");
    style.textContent = css;
    (document.head || document.documentElement).appendChild(style);
  };
  const observer = new MutationObserver((records) => {
    const batch = [];
    for (const r of records) {
      if (r.type === "childList") {
        const added = [];
        r.addedNodes.forEach((n) => { if (n.nodeType === 1) added.push(tag(n)); });
        if (added.length) batch.push({type: "childList", target: tag(r.target), added});
      } else if (r.type === "attributes") {
        batch.push({type: "attributes", target: tag(r.target), name: r.attributeName});
      }
    }
    if (batch.length) window.%s(JSON.stringify(batch));
  });
  let lastURL = location.href;
  const start = () => {
    inject();
    observer.observe(document.documentElement, {
      childList: true, subtree: true, attributes: true, attributeFilter: ["aria-expanded"],
    });
    window.%s();
  };
  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", start, {once: true});
  } else {
    start();
  }
  document.addEventListener("turbo:load", () => {
    if (location.href === lastURL) return;
    lastURL = location.href;
    inject();
    window.%s();
  });
})();`

func initScript() string {
	css, _ := json.Marshal(curate.Stylesheet)
	return fmt.Sprintf(initScriptTemplate,
		css, mutationIDAttr, mutationIDAttr,
		bindingMutations, bindingReady, bindingNavigate)
}

// rawRecord is one mutation record as reported by the page observer.
type rawRecord struct {
	Type   string   `json:"type"`
	Target string   `json:"target"`
	Added  []string `json:"added"`
	Name   string   `json:"name"`
}

func decodeBatch(payload string) ([]rawRecord, error) {
	var records []rawRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, fmt.Errorf("decode mutation batch: %w", err)
	}
	return records, nil
}

// resolver finds the live element carrying a mutation id.
type resolver func(id string) (dom.Element, bool)

// toMutations resolves ids, dropping records whose elements are already gone.
func toMutations(records []rawRecord, resolve resolver) []dom.Mutation {
	out := make([]dom.Mutation, 0, len(records))
	for _, r := range records {
		switch r.Type {
		case "childList":
			m := dom.Mutation{Type: dom.ChildList}
			m.Target, _ = resolve(r.Target)
			for _, id := range r.Added {
				if el, ok := resolve(id); ok {
					m.Added = append(m.Added, el)
				}
			}
			if len(m.Added) > 0 {
				out = append(out, m)
			}
		case "attributes":
			target, ok := resolve(r.Target)
			if !ok {
				continue
			}
			out = append(out, dom.Mutation{Type: dom.Attributes, Target: target, AttributeName: r.Name})
		}
	}
	return out
}

func idSelector(id string) string {
	return fmt.Sprintf("[%s=%q]", mutationIDAttr, id)
}
