package registry

import "github.com/wordwise/wordwise/pkg/speech"

// Platforms is the global speech platform registry. Backends register
// themselves from init.
var Platforms = New[speech.Platform]()
