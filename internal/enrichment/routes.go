package enrichment

// RoutesEnricher resolves which Deployments each Service sends traffic to
// by matching the service selector against deployment selectors in the same
// namespace.
type RoutesEnricher struct{}

// NewRoutesEnricher creates a new RoutesEnricher.
func NewRoutesEnricher() *RoutesEnricher {
	return &RoutesEnricher{}
}

// Name returns the enricher name.
func (r *RoutesEnricher) Name() string { return "routes" }

// Enrich fills Deployments on every Service. A service without a selector
// routes to nothing the console can see.
func (r *RoutesEnricher) Enrich(v *View) error {
	byNamespace := make(map[string][]int)
	for i, dep := range v.Deployments {
		if len(dep.Selector) > 0 {
			byNamespace[dep.Namespace] = append(byNamespace[dep.Namespace], i)
		}
	}

	for i := range v.Services {
		svc := &v.Services[i]
		svc.Deployments = nil
		if len(svc.Selector) == 0 {
			continue
		}
		for _, d := range byNamespace[svc.Namespace] {
			if selectorCovers(svc.Selector, v.Deployments[d].Selector) {
				svc.Deployments = append(svc.Deployments, v.Deployments[d].Name)
			}
		}
	}
	return nil
}

// selectorCovers reports whether every pair of sel is present in target.
func selectorCovers(sel, target map[string]string) bool {
	for k, val := range sel {
		if got, ok := target[k]; !ok || got != val {
			return false
		}
	}
	return true
}
