package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/outofforest/parcel"
)

func (a *app) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Prints the pool geometry",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			geometry := a.cfg.PoolGeometry()
			fmt.Fprintf(a.out, "slots:       %d\n", geometry.Slots)
			fmt.Fprintf(a.out, "slot size:   %d\n", geometry.SlotSize)
			fmt.Fprintf(a.out, "capacity:    %d\n", geometry.Slots*geometry.SlotSize)
			fmt.Fprintf(a.out, "header size: %d\n", parcel.HeaderSize)
			if geometry.SlotSize > parcel.HeaderSize {
				fmt.Fprintf(a.out, "single-slot payload: %d\n", geometry.SlotSize-parcel.HeaderSize)
			}
			return nil
		},
	}
}
