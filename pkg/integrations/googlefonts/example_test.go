package googlefonts_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/fontmeta/pkg/integrations/googlefonts"
)

func ExampleExtractFontID() {
	cask := `cask "font-noto-sans-jp" do
  url "https://github.com/google/fonts/raw/main/ofl/notosansjp/NotoSansJP%5Bwght%5D.ttf"
end`
	id, ok := googlefonts.ExtractFontID(cask)
	fmt.Println(id, ok)
	// Output:
	// notosansjp true
}

func ExampleParseSubsets() {
	metadata := `name: "Noto Sans JP"
subsets: "latin"
subsets: "japanese"
subsets: "latin"
`
	subsets, _ := googlefonts.ParseSubsets(strings.NewReader(metadata))
	fmt.Println(subsets)
	// Output:
	// [japanese latin]
}
