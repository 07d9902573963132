package dfbscan

import "errors"

// ErrConfiguration wraps a fatal startup misconfiguration (the
// "Configuration error" kind): an unsupported language, an undefined
// (language, bug type) extractor pairing, or an unreadable project path.
// Every other error kind in the taxonomy is absorbed at its own component
// boundary and never reaches main.
var ErrConfiguration = errors.New("dfbscan: configuration error")
