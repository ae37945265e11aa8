package playlist

// Package playlist parses streaming manifests (master or media) into the
// structured form the download engine consumes: rendition variants, ordered
// segments, and a single optional encryption key reference.
