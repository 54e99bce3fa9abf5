// Package tts synthesizes speech through the OpenAI audio speech API, picking
// a voice per target language.
package tts
