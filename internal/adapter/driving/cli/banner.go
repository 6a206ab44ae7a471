package cli

import (
	"fmt"

	"github.com/diillson/azure-snapshot-sweeper-go/pkg/version"
	"github.com/fatih/color"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner(versionStr string) {
	banner := `
   _____                    _____ _   _ ____    ____            _                         
  / ____|                  / ____| \ | |  _ \  / ___|_      __ | ___  ___ _ __   ___ _ __ 
 | (___  _ __   __ _ _ __ | (___ |  \| | | | | \___ \ \ /\ / / |/ _ \/ _ \ '_ \ / _ \ '__|
  \___ \| '_ \ / _' | '_ \ \___ \| . ' | | | |  ___) \ V  V /  |  __/  __/ |_) |  __/ |   
  ____) | | | | (_| | |_) |____) | |\  | |_| | |____/ \_/\_/   |\___|\___| .__/ \___|_|   
 |_____/|_| |_|\__,_| .__/|_____/|_| \_|____/                            |_|              
                    |_|                                                                   
        `
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(cyan(banner))

	// Obtem a string formatada da versão através do pacote version
	formattedVersion := version.FormatVersion()
	fmt.Println(blue(fmt.Sprintf("Welcome to the Azure Snapshot Search & Destroy! (v%s, build %s)", versionStr, formattedVersion)))
}
