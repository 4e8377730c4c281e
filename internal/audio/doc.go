// Package audio plays the order bell through an external command-line player.
//
// Preload resolves the player binary and checks the sound file; it stands in
// for the user gesture a browser would require before autoplay. Play fails
// soft with ErrNotReady until Preload has succeeded, so callers can log and
// carry on.
package audio
