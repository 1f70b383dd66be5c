package internaltypes

import "errors"

var ErrNotFound = errors.New("not found")
