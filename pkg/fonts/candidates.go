// candidates.go - Per-platform font search chains.
package fonts

import (
	"path/filepath"
	"runtime"
)

// SystemCandidates returns font paths to try for a script on the running
// platform, most specific first. General Unicode fonts close every chain.
func SystemCandidates(s Script) []string {
	return candidatesFor(runtime.GOOS, s)
}

func candidatesFor(goos string, s Script) []string {
	switch goos {
	case "darwin":
		return darwinCandidates(s)
	case "windows":
		return windowsCandidates(s)
	default:
		return linuxCandidates(s)
	}
}

func darwinCandidates(s Script) []string {
	var fonts []string
	switch s {
	case Korean:
		fonts = append(fonts,
			"/System/Library/Fonts/AppleSDGothicNeo.ttc",
			"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
		)
	case CJK:
		fonts = append(fonts,
			"/System/Library/Fonts/Hiragino Sans GB.ttc",
			"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
		)
	case Arabic, Hebrew:
		fonts = append(fonts,
			"/System/Library/Fonts/Supplemental/Arial Unicode.ttf",
			"/Library/Fonts/Arial.ttf",
		)
	}
	return append(fonts,
		"/System/Library/Fonts/Helvetica.ttc",
		"/System/Library/Fonts/SFNSDisplay.ttf",
	)
}

func windowsCandidates(s Script) []string {
	var fonts []string
	switch s {
	case Arabic:
		fonts = append(fonts, `C:\Windows\Fonts\arialuni.ttf`, `C:\Windows\Fonts\tahoma.ttf`)
	case Hebrew:
		fonts = append(fonts, `C:\Windows\Fonts\arialuni.ttf`, `C:\Windows\Fonts\arial.ttf`)
	case CJK:
		fonts = append(fonts, `C:\Windows\Fonts\msyh.ttc`, `C:\Windows\Fonts\arialuni.ttf`)
	case Korean:
		fonts = append(fonts, `C:\Windows\Fonts\malgun.ttf`, `C:\Windows\Fonts\arialuni.ttf`)
	}
	return append(fonts,
		`C:\Windows\Fonts\arial.ttf`,
		`C:\Windows\Fonts\calibri.ttf`,
		`C:\Windows\Fonts\segoeui.ttf`,
	)
}

func linuxCandidates(s Script) []string {
	var fonts []string
	switch s {
	case Arabic:
		fonts = append(fonts,
			"/usr/share/fonts/truetype/noto/NotoSansArabic-Regular.ttf",
			"/usr/share/fonts/truetype/noto/NotoNaskhArabic-Regular.ttf",
		)
	case Hebrew:
		fonts = append(fonts, "/usr/share/fonts/truetype/noto/NotoSansHebrew-Regular.ttf")
	case CJK, Korean:
		fonts = append(fonts,
			"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
			"/usr/share/fonts/opentype/noto/NotoSansCJK-Bold.ttc",
		)
	}
	return append(fonts,
		"/usr/share/fonts/truetype/noto/NotoSans-Regular.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
		"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
		"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	)
}

// DirCandidates lists the conventional Noto file names for a script inside
// each directory, for deployments that ship their own font folder.
func DirCandidates(dirs []string, s Script) []string {
	var names []string
	switch s {
	case Arabic:
		names = []string{"NotoSansArabic-Regular.ttf", "NotoNaskhArabic-Regular.ttf"}
	case Hebrew:
		names = []string{"NotoSansHebrew-Regular.ttf"}
	case CJK, Korean:
		names = []string{"NotoSansCJK-Regular.ttc", "NotoSansSC-Regular.otf", "NotoSansKR-Regular.otf"}
	}
	names = append(names, "NotoSans-Regular.ttf", "DejaVuSans.ttf")

	var out []string
	for _, d := range dirs {
		for _, n := range names {
			out = append(out, filepath.Join(d, n))
		}
	}
	return out
}
