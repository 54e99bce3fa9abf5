// Package audio holds the codec layer (IMA ADPCM blocks, PCM, WAV, MP3 and
// resampling) and the per-session fragment reassembler that turns out-of-order
// client chunks into one utterance.
package audio
