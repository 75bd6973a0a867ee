package filters

const ClassifierID = "classifier.external"

// Classifier is an opaque false-positive predicate, e.g. a statistical model
// served out of process. Calls may block; callers wrap their own timeouts.
type Classifier interface {
	IsFalsePositive(c Candidate) (bool, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(c Candidate) (bool, error)

func (f ClassifierFunc) IsFalsePositive(c Candidate) (bool, error) { return f(c) }

// ClassifierFilter plugs a Classifier into the chain.
type ClassifierFilter struct {
	Classifier Classifier
	params     map[string]any
}

func (f *ClassifierFilter) ID() string { return ClassifierID }

func (f *ClassifierFilter) Initialize(params map[string]any) error {
	f.params = params
	return nil
}

func (f *ClassifierFilter) Params() map[string]any {
	if f.params == nil {
		return map[string]any{}
	}
	return f.params
}

func (f *ClassifierFilter) ShouldExclude(c Candidate) (bool, error) {
	return f.Classifier.IsFalsePositive(c)
}

// RegisterClassifier makes c available under ClassifierID.
func (r *Registry) RegisterClassifier(c Classifier) {
	r.Register(ClassifierID, func(*Session) Filter { return &ClassifierFilter{Classifier: c} })
}
