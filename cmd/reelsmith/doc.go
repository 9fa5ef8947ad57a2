// Command reelsmith turns spreadsheet rows into published videos. It reads
// topics from a Google Sheet or the local journal, generates a script and
// media assets, renders the video with ffmpeg, uploads it to YouTube, and
// writes the outcome back.
package main
