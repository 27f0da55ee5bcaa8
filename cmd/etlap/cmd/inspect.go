package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/msto63/etlap/internal/parser"
)

var inspectFile string

var inspectCmd = &cobra.Command{
	Use:   "inspect [text]",
	Short: "Show how a cell text is parsed",
	Long: `Prints the token stream, the foods, the numbers and the nutrient record
of a cell text.

Examples:
  etlap inspect "Gulyásleves (1,9) Kenyér (1)"
  etlap inspect --file cell.txt
  echo "520 kcal 64,2 21,5 12 18,3 2,1 6,4" | etlap inspect`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFile, "file", "", "read the text from a file")
}

func inspectInput(args []string) (string, error) {
	if inspectFile != "" {
		data, err := os.ReadFile(inspectFile)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	stat, err := os.Stdin.Stat()
	if err == nil && stat.Mode()&os.ModeCharDevice == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", fmt.Errorf("no text given")
}

func runInspect(cmd *cobra.Command, args []string) error {
	text, err := inspectInput(args)
	if err != nil {
		return err
	}
	text = norm.NFC.String(text)

	fmt.Println(titleStyle.Render("Input") + " " + mutedStyle.Render(fmt.Sprintf("(%d bytes)", len(text))))
	fmt.Println(boxStyle.Render(text))

	fmt.Println(sectionStyle.Render("Tokens"))
	fmt.Println(renderTokens(text))

	fmt.Println(sectionStyle.Render("Foods"))
	foods := parser.ParseFoods(text)
	if len(foods) == 0 {
		fmt.Println(mutedStyle.Render("  none"))
	}
	for _, f := range foods {
		line := "  " + f.Name
		if f.HasAllergens() {
			line += " " + mutedStyle.Render("allergens "+f.Allergens)
		}
		fmt.Println(line)
	}

	fmt.Println(sectionStyle.Render("Numbers"))
	numbers := parser.ParseNumbers(text)
	values := make([]string, len(numbers))
	for i, n := range numbers {
		values[i] = strconv.FormatFloat(n, 'f', -1, 64)
	}
	if len(values) == 0 {
		fmt.Println(mutedStyle.Render("  none"))
	} else {
		fmt.Println("  " + strings.Join(values, ", "))
	}

	fmt.Println(sectionStyle.Render("Nutrient"))
	n, ok := parser.NutrientFromNumbers(numbers)
	if !ok {
		fmt.Println(mutedStyle.Render(fmt.Sprintf("  none (%d of %d values)", len(numbers), parser.MinNutrientValues)))
		return nil
	}
	fmt.Println(renderNutrient(n))
	return nil
}

func renderTokens(text string) string {
	kindStyles := map[parser.TokenKind]lipgloss.Style{
		parser.TokenName:         okStyle,
		parser.TokenAllergenList: matchStyle,
		parser.TokenNoise:        mutedStyle,
	}

	var b strings.Builder
	for _, s := range parser.Spans(text) {
		style, ok := kindStyles[s.Kind]
		if !ok {
			style = valueStyle
		}
		fmt.Fprintf(&b, "  %s %4d %3d  %s\n",
			style.Width(10).Render(s.Kind.String()),
			s.Start, s.Len,
			strconv.Quote(s.Raw(text)))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderNutrient(n parser.Nutrient) string {
	lines := []string{
		field("  energy", strconv.FormatFloat(n.Energy, 'f', 0, 64)+" kcal"),
		field("  carbohydrate", strconv.FormatFloat(n.Carbohydrate, 'f', 1, 64)+" g"),
		field("  protein", strconv.FormatFloat(n.Protein, 'f', 1, 64)+" g"),
		field("  sugar", strconv.FormatFloat(n.Sugar, 'f', 1, 64)+" g"),
		field("  fat", strconv.FormatFloat(n.Fat, 'f', 1, 64)+" g"),
		field("  salt", strconv.FormatFloat(n.Salt, 'f', 1, 64)+" g"),
		field("  saturated fat", strconv.FormatFloat(n.SaturatedFat, 'f', 1, 64)+" g"),
	}
	return strings.Join(lines, "\n")
}
