package reply

import "reflect"

// Class labels a completed response for lifecycle logging.
type Class int

const (
	// ClassSuccess covers responses with no error wrapper and no failure
	// discriminator, whatever their status code.
	ClassSuccess Class = iota
	// ClassFrameworkError covers responses produced from an error value.
	ClassFrameworkError
	// ClassBusinessFailure covers successful transport responses whose
	// body declares success=false.
	ClassBusinessFailure
)

// Classify decides once, at the framework boundary, how a completed
// response should be logged. A nil outcome (handler wrote the response
// itself) classifies as success.
func Classify(o *Outcome) Class {
	if o == nil {
		return ClassSuccess
	}
	if o.Err != nil {
		return ClassFrameworkError
	}
	if SourceFailed(o.Source) {
		return ClassBusinessFailure
	}
	return ClassSuccess
}

// SourceFailed reports whether body carries an explicit success=false
// discriminator: a map with a false "success" entry, or a struct with a
// false exported Success field. Bodies without the discriminator never
// count as failed.
func SourceFailed(body any) bool {
	if body == nil {
		return false
	}

	if m, ok := body.(map[string]any); ok {
		success, present := m["success"].(bool)
		return present && !success
	}

	v := reflect.ValueOf(body)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return false
	}

	field := v.FieldByName("Success")
	if !field.IsValid() || field.Kind() != reflect.Bool {
		return false
	}
	return !field.Bool()
}
