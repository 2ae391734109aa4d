package classify

import "fmt"

// Tag is a machine-readable error category attached at the error source,
// so severity never has to be re-derived from free text for errors this
// module produces itself.
type Tag string

const (
	TagUnreadable    Tag = "UNREADABLE"     // file cannot be opened or decoded
	TagCorrupted     Tag = "CORRUPTED"      // document structure is broken
	TagInvalidFormat Tag = "INVALID_FORMAT" // extension/format mismatch
	TagNoText        Tag = "NO_TEXT"        // readability: zero text content
	TagNoDepths      Tag = "NO_DEPTHS"      // readability: zero depth labels found
	TagNoMaterials   Tag = "NO_MATERIALS"   // readability: zero material signals found
	TagSequence      Tag = "SEQUENCE"       // depth-sequence inconsistency
	TagBoundary      Tag = "BOUNDARY"       // layer-boundary inconsistency
	TagUnit          Tag = "UNIT"           // unit ambiguity or normalization issue
)

// TaggedError is a classified error produced at the source (parser,
// normalizer, validator).
type TaggedError struct {
	Tag     Tag
	Message string
	Cause   error
}

func (e *TaggedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *TaggedError) Unwrap() error {
	return e.Cause
}

// Tagged builds a TaggedError with a formatted message.
func Tagged(tag Tag, format string, args ...any) *TaggedError {
	return &TaggedError{Tag: tag, Message: fmt.Sprintf(format, args...)}
}

// TaggedWrap builds a TaggedError wrapping an underlying cause.
func TaggedWrap(tag Tag, cause error, format string, args ...any) *TaggedError {
	return &TaggedError{Tag: tag, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func classificationForTag(tag Tag, message string) Classification {
	switch tag {
	case TagUnreadable, TagCorrupted, TagInvalidFormat, TagNoText, TagNoDepths, TagNoMaterials:
		return buildClassification(ClassFatal, false, message)
	case TagSequence, TagBoundary:
		return buildClassification(ClassRecoverable, true, message)
	case TagUnit:
		return buildClassification(ClassWarning, true, message)
	default:
		return buildClassification(ClassWarning, true, message)
	}
}
