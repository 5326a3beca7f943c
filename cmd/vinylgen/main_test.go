package main

import "testing"

// TestArtifactPaths verifies default artifact names are derived from the
// input's base name only, so they land in the working directory even for
// inputs given by absolute or relative path.
func TestArtifactPaths(t *testing.T) {
	cases := []struct {
		in                    string
		video, preview, thumb string
	}{
		{"track.mp3", "track_vinyl.mp4", "track_vinyl.png", "track_vinyl_thumb.png"},
		{"/music/albums/track.flac", "track_vinyl.mp4", "track_vinyl.png", "track_vinyl_thumb.png"},
		{"../take.2.wav", "take.2_vinyl.mp4", "take.2_vinyl.png", "take.2_vinyl_thumb.png"},
		{"noext", "noext_vinyl.mp4", "noext_vinyl.png", "noext_vinyl_thumb.png"},
	}

	for _, tc := range cases {
		video, preview, thumb := artifactPaths(tc.in)
		if video != tc.video || preview != tc.preview || thumb != tc.thumb {
			t.Errorf("artifactPaths(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tc.in, video, preview, thumb, tc.video, tc.preview, tc.thumb)
		}
	}
}
