package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/banshee-data/collision.report/internal/monitoring"
)

// DefaultOutputFile is where the CLI writes the prompt.
const DefaultOutputFile = "prompt_output.txt"

// DefaultPreamble introduces the project before the file listing.
const DefaultPreamble = "Résumé des actions : 1. Nous avons créé un scénario de simulation pour un système d'alerte de collision arrière en utilisant le framework Artery. 2. Nous avons développé deux services principaux : CollisionWarningService et CollisionAlertReceiverService. 3. Nous avons configuré l'environnement de simulation, y compris l'intégration avec SUMO pour la simulation de trafic. 4. Nous avons travaillé sur l'intégration du LocalEnvironmentModel pour la détection des objets environnants. 5. Nous avons résolu plusieurs problèmes de compilation et de configuration liés à l'utilisation d'Artery et OMNeT++. Présentation du projet : Nous sommes en train de développer une simulation de véhicules connectés utilisant la communication V2X (Vehicle-to-Everything) pour améliorer la sécurité routière. Le scénario spécifique que nous simulons est un système d'alerte de collision arrière. Modules principaux : 1. CollisionWarningService : Ce service est responsable de la détection des risques de collision et de l'émission des alertes. 2. CollisionAlertReceiverService : Ce service reçoit les alertes de collision et réagit en conséquence, par exemple en réduisant la vitesse du véhicule. 3. LocalEnvironmentModel : Ce module gère la perception de l'environnement local autour de chaque véhicule, y compris la détection des autres véhicules à proximité. 4. SUMO Integration : Nous utilisons SUMO (Simulation of Urban MObility) pour simuler le trafic routier réaliste sur lequel notre système V2X opère. 5. Artery Framework : Nous utilisons Artery comme base pour notre simulation, qui fournit une plateforme pour la simulation de communications V2X basée sur OMNeT++. Le but de ce projet est de démontrer comment la communication V2X peut être utilisée pour prévenir les collisions arrière en alertant les conducteurs des dangers potentiels et en permettant aux véhicules de réagir automatiquement aux situations dangereuses. Voici le code . "

// ErrInvalidUTF8 marks a file whose content is not UTF-8 text.
var ErrInvalidUTF8 = errors.New("content is not valid UTF-8")

var logf = monitoring.Prefixed("[prompt] ")

// Builder assembles a prompt from a directory tree.
type Builder struct {
	Preamble string
	Filter   Filter
}

// NewBuilder returns a Builder with the default preamble and exclusions.
func NewBuilder() *Builder {
	return &Builder{Preamble: DefaultPreamble, Filter: DefaultFilter}
}

// Build walks dir on disk. See BuildFS.
func (b *Builder) Build(dir string) (string, error) {
	return b.BuildFS(os.DirFS(dir), dir)
}

// BuildFS concatenates every kept file of fsys after the preamble as
// `relative/path : "content"` blocks separated by a blank line. A file that
// cannot be read is not fatal: its block carries an error message naming
// displayDir joined with the relative path. Only a failure to walk the tree
// is returned as an error.
func (b *Builder) BuildFS(fsys fs.FS, displayDir string) (string, error) {
	files, err := Walk(fsys, ".", b.Filter)
	if err != nil {
		return "", fmt.Errorf("failed to walk %s: %w", displayDir, err)
	}

	var sb strings.Builder
	sb.WriteString(b.Preamble)
	for _, rel := range files {
		content, err := readText(fsys, rel)
		if err != nil {
			full := filepath.Join(displayDir, filepath.FromSlash(rel))
			logf("skipping content of %s: %v", full, err)
			content = fmt.Sprintf("Erreur lors de la lecture du fichier %s: %v", full, err)
		}
		fmt.Fprintf(&sb, "%s : \"%s\"\n\n", filepath.FromSlash(rel), content)
	}
	return sb.String(), nil
}

// readText reads name as UTF-8 text with line endings normalised to \n.
func readText(fsys fs.FS, name string) (string, error) {
	data, err := fs.ReadFile(fsys, path.Clean(name))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrInvalidUTF8
	}
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n"), nil
}
