package resolve

// Package resolve implements the source resolution engine. It races a
// direct page scrape against a scripted-browser collaborator under a
// per-attempt timeout, retries with capped exponential backoff, caches
// winning URLs with a TTL, and falls back to constituent parts of the item
// when every attempt fails.
