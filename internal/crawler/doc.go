// Package crawler reconciles the videos directory against the persisted
// catalog: it creates records for new files, re-validates known ones, and
// triggers subtitle and thumbnail derivation for every resolved video.
package crawler
